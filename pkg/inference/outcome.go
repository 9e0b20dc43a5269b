package inference

import "github.com/menta2k/room-advisor/pkg/types"

// Outcome is the result of one Detect call. It is exactly one of
// Success, PartialFailure or HardFailure.
type Outcome interface {
	outcome()
}

// Success carries the raw detections returned by a model
type Success struct {
	Detections []types.Detection
}

// PartialFailure means detection failed but the image colors were
// extracted, so color-based suggestions are still possible
type PartialFailure struct {
	Message string
	Colors  *types.ColorProfile
	// Objects holds a low-confidence placeholder so downstream stages have
	// something to render
	Objects []types.Detection
	Err     error
}

// HardFailure means neither detection nor color extraction produced
// anything usable
type HardFailure struct {
	Reason     string
	Details    string
	Suggestion string
	Err        error
}

func (Success) outcome()        {}
func (PartialFailure) outcome() {}
func (HardFailure) outcome()    {}

// Placeholder is the synthetic object attached to partial failures
func Placeholder() types.Detection {
	return types.Detection{
		Label: "furniture",
		Score: 0.3,
		Box:   &types.Box{XMin: 0, YMin: 0, XMax: 100, YMax: 100},
	}
}

package suggest

import "github.com/menta2k/room-advisor/pkg/types"

var genericAdvice = []struct {
	category string
	text     string
}{
	{"color", "Consider adding warm colors like beige, cream, or soft pastels to create a welcoming atmosphere"},
	{"lighting", "Good lighting is essential - consider adding table lamps or floor lamps for ambient lighting"},
	{"space", "Ensure furniture placement allows for easy movement and conversation flow"},
}

// Generic returns the low-confidence advice given when an image could not
// be analyzed at all
func Generic(filename string) []types.Record {
	records := make([]types.Record, 0, len(genericAdvice))
	for _, advice := range genericAdvice {
		records = append(records, types.Record{
			Filename:        filename,
			DetectedObjects: []types.Detection{},
			Text:            advice.text,
			Confidence:      types.ConfidenceLow,
			Provenance:      types.ProvenanceColor,
			Category:        advice.category,
		})
	}
	return records
}

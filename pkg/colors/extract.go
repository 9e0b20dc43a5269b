// Package colors extracts dominant colors from room photographs and derives
// color-wheel harmonies from them.
//
// A profile is built from the mean color of the whole image and of its four
// quadrants. Quadrant boundaries sit at ceil(width/2) and ceil(height/2), so
// the remainder row or column of an odd dimension belongs to the top/left
// quadrants. Quadrants with zero area (one-pixel dimensions) are skipped.
//
// Harmonies are pure functions of a single base color; see DeriveHarmony.
package colors

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/room-advisor/pkg/processing"
	"github.com/menta2k/room-advisor/pkg/types"
)

// Profile is the dominant color of an image and its quadrant palette
type Profile = types.ColorProfile

// ExtractionError reports an image that could not produce a color profile.
// Callers treat it as non-fatal and continue without colors.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("color extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "color extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor computes color profiles from raw image bytes
type Extractor struct {
	processor *processing.Processor
}

// NewExtractor creates an extractor with a default image processor
func NewExtractor() *Extractor {
	return &Extractor{processor: processing.NewProcessor()}
}

// NewExtractorWithProcessor creates an extractor around an existing processor
func NewExtractorWithProcessor(p *processing.Processor) *Extractor {
	return &Extractor{processor: p}
}

// Extract decodes data and returns its color profile
func (e *Extractor) Extract(data []byte) (*Profile, error) {
	img, err := e.processor.Decode(data)
	if err != nil {
		return nil, &ExtractionError{Reason: "decode", Err: err}
	}
	return e.ExtractImage(img)
}

// ExtractImage returns the color profile of an already decoded image
func (e *Extractor) ExtractImage(img image.Image) (*Profile, error) {
	if err := e.processor.ValidateImage(img); err != nil {
		return nil, &ExtractionError{Reason: "empty image", Err: err}
	}

	// Normalize to NRGBA anchored at (0,0) so Pix can be scanned directly
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	profile := &Profile{
		Dominant: meanColor(src, src.Bounds()),
		Palette:  make([]string, 0, 4),
	}

	seen := make(map[string]struct{}, 4)
	for _, q := range Quadrants(w, h) {
		if q.Empty() {
			continue
		}
		hex := meanColor(src, q)
		if _, ok := seen[hex]; ok {
			continue
		}
		seen[hex] = struct{}{}
		profile.Palette = append(profile.Palette, hex)
	}

	return profile, nil
}

// Quadrants splits a width x height area into top-left, top-right,
// bottom-left and bottom-right rectangles. The split point is rounded up,
// which gives odd remainders to the top/left quadrants.
func Quadrants(width, height int) [4]image.Rectangle {
	midX := (width + 1) / 2
	midY := (height + 1) / 2
	return [4]image.Rectangle{
		image.Rect(0, 0, midX, midY),
		image.Rect(midX, 0, width, midY),
		image.Rect(0, midY, midX, height),
		image.Rect(midX, midY, width, height),
	}
}

// meanColor averages the RGB channels of img inside r
func meanColor(img *image.NRGBA, r image.Rectangle) string {
	r = r.Intersect(img.Bounds())
	n := uint64(r.Dx() * r.Dy())
	if n == 0 {
		return toHex(0, 0, 0)
	}

	var sr, sg, sb uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			sr += uint64(img.Pix[i+0])
			sg += uint64(img.Pix[i+1])
			sb += uint64(img.Pix[i+2])
			i += 4
		}
	}

	return toHex(
		uint8((sr+n/2)/n),
		uint8((sg+n/2)/n),
		uint8((sb+n/2)/n),
	)
}

func toHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

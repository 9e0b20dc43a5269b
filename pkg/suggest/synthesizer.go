// Package suggest turns detections and colors into design suggestions.
package suggest

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/pkg/colors"
	"github.com/menta2k/room-advisor/pkg/detection"
	"github.com/menta2k/room-advisor/pkg/types"
)

// TextNoFurniture is used when nothing was recognized and no colors are known
const TextNoFurniture = "No specific furniture detected. Try uploading a room image with furniture!"

// ProfileExtractor resolves the colors of an image when the caller has none
type ProfileExtractor interface {
	Extract(data []byte) (*types.ColorProfile, error)
}

type profileSource int

const (
	sourceNone profileSource = iota
	sourceExtracted
	sourceFallback
)

// Synthesizer builds exactly one suggestion record per image
type Synthesizer struct {
	extractor ProfileExtractor
	log       logrus.FieldLogger
}

// NewSynthesizer creates a synthesizer. A nil extractor uses the default
// quadrant extractor.
func NewSynthesizer(extractor ProfileExtractor, logger logrus.FieldLogger) *Synthesizer {
	if extractor == nil {
		extractor = colors.NewExtractor()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Synthesizer{extractor: extractor, log: logger}
}

// Synthesize produces the suggestion for img. fallback carries colors that
// were recovered after detection failed; when nil the image is analyzed here.
func (s *Synthesizer) Synthesize(img types.Image, detections []types.Detection, fallback *types.ColorProfile) []types.Record {
	profile, source := s.resolveProfile(img, fallback)

	objects := detection.SortByScore(detection.Dedup(detection.FilterFurniture(detections)))
	if objects == nil {
		objects = []types.Detection{}
	}

	var harmony []string
	if profile != nil {
		if h, err := colors.DeriveHarmony(profile.Dominant); err == nil {
			harmony = h.Slice()
		} else {
			s.log.WithError(err).WithField("file", img.Filename).Debug("[Suggest] Could not derive harmony")
		}
	}

	record := types.Record{
		Filename:        img.Filename,
		DetectedObjects: objects,
		ColorProfile:    profile,
		HarmonySet:      harmony,
	}

	if len(objects) == 0 {
		record.Provenance = types.ProvenanceColor
		record.Text = colorText(profile, harmony)
		if source == sourceExtracted {
			record.Confidence = types.ConfidenceMedium
		} else {
			record.Confidence = types.ConfidenceLow
		}
		return []types.Record{record}
	}

	primary := objects[0]
	text := fmt.Sprintf("Detected %d furniture items including %s.", len(objects), primary.Label)
	text += objectSuggestion(primary.Label)
	if len(harmony) == 6 {
		text += fmt.Sprintf(" Use %s and %s as accent colors to complement the room's palette.",
			harmony[colors.HarmonyComplementary], harmony[colors.HarmonyAnalogousPlus])
	}

	record.Text = text
	record.Provenance = types.ProvenanceObject
	if source == sourceExtracted {
		record.Confidence = types.ConfidenceHigh
	} else {
		record.Confidence = types.ConfidenceMedium
	}
	return []types.Record{record}
}

func (s *Synthesizer) resolveProfile(img types.Image, fallback *types.ColorProfile) (*types.ColorProfile, profileSource) {
	if fallback != nil {
		return fallback, sourceFallback
	}
	profile, err := s.extractor.Extract(img.Data)
	if err != nil {
		s.log.WithError(err).WithField("file", img.Filename).Warn("[Suggest] Color extraction failed, continuing without colors")
		return nil, sourceNone
	}
	return profile, sourceExtracted
}

// objectSuggestion is the canned advice for the most prominent object
func objectSuggestion(label string) string {
	switch detection.Key(label) {
	case "sofa", "couch":
		return " Consider adding a matching coffee table in a modern minimalist style to complement the couch."
	case "chair":
		return " Consider adding a matching desk in a Scandinavian style to pair with the chair."
	case "bed":
		return " Consider adding a matching decorative piece like a vase or artwork to enhance the room's aesthetic."
	default:
		return " Consider adding a decorative piece like a vase or artwork to enhance the room's aesthetic."
	}
}

func colorText(profile *types.ColorProfile, harmony []string) string {
	if profile == nil {
		return TextNoFurniture
	}

	text := fmt.Sprintf("No specific furniture detected. The room is dominated by %s.", profile.Dominant)
	if len(harmony) == 6 {
		accents := []string{
			harmony[colors.HarmonyComplementary],
			harmony[colors.HarmonyAnalogousPlus],
			harmony[colors.HarmonyTriadicFirst],
		}
		text += fmt.Sprintf(" Complementary colors such as %s would work well for accents and textiles.", strings.Join(accents, ", "))
	}
	return text
}

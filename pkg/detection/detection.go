package detection

import (
	"sort"
	"strings"

	"github.com/menta2k/room-advisor/pkg/types"
)

// DetectionThreshold is the minimum score a detection must exceed to count
const DetectionThreshold = 0.5

// Furniture is the vocabulary of labels suggestions are built from
var Furniture = []string{"chair", "table", "sofa", "couch", "lamp", "bed", "mirror", "rug"}

// Key returns the case-insensitive grouping key of a label
func Key(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Dedup collapses detections sharing a case-insensitive label into the
// highest scoring one. Ties keep the first detection seen. Groups are
// returned in first-seen order; callers that present results re-sort.
func Dedup(dets []types.Detection) []types.Detection {
	index := make(map[string]int, len(dets))
	out := make([]types.Detection, 0, len(dets))

	for _, d := range dets {
		key := Key(d.Label)
		if i, ok := index[key]; ok {
			if d.Score > out[i].Score {
				out[i] = d
			}
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}

	return out
}

// Filter keeps detections whose label is in vocabulary and whose score is
// strictly above threshold. A nil vocabulary accepts every label.
func Filter(dets []types.Detection, vocabulary []string, threshold float64) []types.Detection {
	var allowed map[string]struct{}
	if vocabulary != nil {
		allowed = make(map[string]struct{}, len(vocabulary))
		for _, v := range vocabulary {
			allowed[Key(v)] = struct{}{}
		}
	}

	out := make([]types.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score <= threshold {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[Key(d.Label)]; !ok {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// FilterFurniture applies the furniture vocabulary and default threshold
func FilterFurniture(dets []types.Detection) []types.Detection {
	return Filter(dets, Furniture, DetectionThreshold)
}

// SortByScore orders detections by descending score, keeping input order for equal scores
func SortByScore(dets []types.Detection) []types.Detection {
	out := append([]types.Detection(nil), dets...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Normalize trims labels, clamps scores into [0,1] and drops unlabeled entries
func Normalize(dets []types.Detection) []types.Detection {
	out := make([]types.Detection, 0, len(dets))
	for _, d := range dets {
		d.Label = strings.TrimSpace(d.Label)
		if d.Label == "" {
			continue
		}
		d.Score = clamp(d.Score, 0, 1)
		out = append(out, d)
	}
	return out
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package clustering

import (
	"sort"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

// generateTrendName describes a centroid by its strongest moods.
//
//   - top share >= 0.6                 = "Mostly <mood>"
//   - second share >= 0.25             = "<mood> & <mood>"
//   - top share < 0.35                 = "Mixed Feelings"
//   - otherwise                        = "Leaning <mood>"
//
// Emotions that map to the same mood (neutral and calm) are summed first.
func generateTrendName(centroid mood.Emotions) string {
	ranked := rankLabels(centroid)
	if len(ranked) == 0 {
		return "Mixed Feelings"
	}

	top := ranked[0]
	switch {
	case top.share >= 0.6:
		return "Mostly " + string(top.label)
	case len(ranked) > 1 && ranked[1].share >= 0.25:
		return string(top.label) + " & " + string(ranked[1].label)
	case top.share < 0.35:
		return "Mixed Feelings"
	default:
		return "Leaning " + string(top.label)
	}
}

type labelShare struct {
	label mood.Label
	share float64
}

// rankLabels sums the normalized distribution per mood label, largest first.
// Ties keep the canonical label order.
func rankLabels(em mood.Emotions) []labelShare {
	norm := em.Normalize()
	shares := make(map[mood.Label]float64)
	for _, e := range mood.EmotionKeys() {
		shares[mood.LabelFor(e)] += norm.Get(e)
	}

	var ranked []labelShare
	for _, l := range mood.Labels() {
		if s := shares[l]; s > 0 {
			ranked = append(ranked, labelShare{label: l, share: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].share > ranked[j].share
	})
	return ranked
}

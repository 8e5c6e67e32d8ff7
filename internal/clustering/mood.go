package clustering

import (
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// TrendConfig holds trend clustering parameters.
type TrendConfig struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum records per trend (smaller clusters become outliers)
}

// DefaultTrendConfig returns the recommended default configuration.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		NumClusters:    3,
		MinClusterSize: 1,
	}
}

// recordObservation wraps a Record to implement clusters.Observation.
type recordObservation struct {
	record *store.Record
	coords clusters.Coordinates
}

func (o recordObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o recordObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectTrends groups records by emotion similarity using k-means clustering.
// NumClusters is clamped to the number of records. Trends are sorted by
// size, largest first; records in clusters below MinClusterSize are
// returned as outliers. The clustering is randomly seeded, so membership can
// vary between runs for loosely separated data.
func DetectTrends(records []store.Record, cfg TrendConfig) ([]Trend, []store.Record, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	defaults := DefaultTrendConfig()
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = defaults.NumClusters
	}
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = defaults.MinClusterSize
	}
	k := min(cfg.NumClusters, len(records))

	// Work on a copy so the caller's slice order is untouched
	recs := slices.Clone(records)

	var obs clusters.Observations
	for i := range recs {
		obs = append(obs, recordObservation{
			record: &recs[i],
			coords: clusters.Coordinates(recs[i].Emotions.Vector()),
		})
	}

	result, err := kmeans.New().Partition(obs, k)
	if err != nil {
		return nil, nil, fmt.Errorf("k-means clustering: %w", err)
	}

	var trends []Trend
	var outliers []store.Record

	for _, cluster := range result {
		var members []store.Record
		for _, o := range cluster.Observations {
			if ro, ok := o.(recordObservation); ok {
				members = append(members, *ro.record)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			outliers = append(outliers, members...)
			continue
		}

		slices.SortFunc(members, func(a, b store.Record) int {
			return a.AnalyzedAt.Compare(b.AnalyzedAt)
		})

		centroid := meanEmotions(members)
		dominant, _ := centroid.Dominant()

		trends = append(trends, Trend{
			Name:     generateTrendName(centroid),
			Label:    mood.LabelFor(dominant),
			Centroid: centroid,
			Records:  members,
			Count:    len(members),
			First:    members[0].AnalyzedAt,
			Last:     members[len(members)-1].AnalyzedAt,
		})
	}

	slices.SortFunc(trends, func(a, b Trend) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return b.Last.Compare(a.Last)
	})

	return trends, outliers, nil
}

// meanEmotions averages member distributions. The k-means center is not used
// because it is only recentered after reassignments.
func meanEmotions(members []store.Record) mood.Emotions {
	sum := make([]float64, len(mood.EmotionKeys()))
	for _, r := range members {
		for i, v := range r.Emotions.Vector() {
			sum[i] += v
		}
	}
	for i := range sum {
		sum[i] /= float64(len(members))
	}
	return mood.FromVector(sum)
}

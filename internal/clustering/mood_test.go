package clustering

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/store"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func makeRecord(minutes int, em mood.Emotions) store.Record {
	return store.NewRecord(uuid.New(), mood.NewResult(em), "mock", baseTime.Add(time.Duration(minutes)*time.Minute))
}

func TestDetectTrends_Empty(t *testing.T) {
	trends, outliers, err := DetectTrends(nil, DefaultTrendConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trends != nil || outliers != nil {
		t.Errorf("expected nil results, got %d trends and %d outliers", len(trends), len(outliers))
	}
}

func TestDetectTrends_SingleClusterCentroidIsMean(t *testing.T) {
	records := []store.Record{
		makeRecord(0, mood.Emotions{Happy: 0.8, Neutral: 0.2}),
		makeRecord(5, mood.Emotions{Happy: 0.6, Sad: 0.4}),
	}

	trends, outliers, err := DetectTrends(records, TrendConfig{NumClusters: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trends) != 1 {
		t.Fatalf("expected 1 trend, got %d", len(trends))
	}
	if len(outliers) != 0 {
		t.Errorf("expected no outliers, got %d", len(outliers))
	}

	tr := trends[0]
	want := mood.Emotions{Happy: 0.7, Neutral: 0.1, Sad: 0.2}
	for _, e := range mood.EmotionKeys() {
		if math.Abs(tr.Centroid.Get(e)-want.Get(e)) > 1e-9 {
			t.Errorf("centroid[%s] = %v, want %v", e, tr.Centroid.Get(e), want.Get(e))
		}
	}
	if tr.Label != mood.Happy {
		t.Errorf("Label = %s, want Happy", tr.Label)
	}
	if tr.Name != "Mostly Happy" {
		t.Errorf("Name = %q, want %q", tr.Name, "Mostly Happy")
	}
	if tr.Count != 2 {
		t.Errorf("Count = %d, want 2", tr.Count)
	}
	if !tr.First.Equal(records[0].AnalyzedAt) || !tr.Last.Equal(records[1].AnalyzedAt) {
		t.Errorf("bounds = %v..%v, want %v..%v", tr.First, tr.Last, records[0].AnalyzedAt, records[1].AnalyzedAt)
	}
}

func TestDetectTrends_Invariants(t *testing.T) {
	var records []store.Record
	for i := range 6 {
		records = append(records, makeRecord(i, mood.Emotions{Happy: 0.9, Neutral: 0.1}))
		records = append(records, makeRecord(100+i, mood.Emotions{Sad: 0.85, Fearful: 0.15}))
	}

	trends, outliers, err := DetectTrends(records, TrendConfig{NumClusters: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := len(outliers)
	for i, tr := range trends {
		total += tr.Count
		if tr.Count != len(tr.Records) {
			t.Errorf("trend %d: Count = %d, len(Records) = %d", i, tr.Count, len(tr.Records))
		}
		if i > 0 && tr.Count > trends[i-1].Count {
			t.Errorf("trends not sorted by size: %d after %d", tr.Count, trends[i-1].Count)
		}
		for j := 1; j < len(tr.Records); j++ {
			if tr.Records[j].AnalyzedAt.Before(tr.Records[j-1].AnalyzedAt) {
				t.Errorf("trend %d records not in chronological order", i)
			}
		}
		if sum := tr.Centroid.Sum(); math.Abs(sum-1) > 1e-6 {
			t.Errorf("trend %d centroid sums to %v", i, sum)
		}
	}
	if total != len(records) {
		t.Errorf("records accounted for = %d, want %d", total, len(records))
	}
	if len(trends) > 3 {
		t.Errorf("got %d trends, want at most 3", len(trends))
	}
}

func TestDetectTrends_ClampsClusterCount(t *testing.T) {
	records := []store.Record{
		makeRecord(0, mood.Emotions{Angry: 1}),
		makeRecord(1, mood.Emotions{Happy: 1}),
	}

	trends, outliers, err := DetectTrends(records, TrendConfig{NumClusters: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(trends); got == 0 || got > 2 {
		t.Errorf("got %d trends, want 1 or 2", got)
	}
	if len(outliers) != 0 {
		t.Errorf("expected no outliers with MinClusterSize 1, got %d", len(outliers))
	}
}

func TestDetectTrends_SmallClustersAreOutliers(t *testing.T) {
	records := []store.Record{
		makeRecord(0, mood.Emotions{Happy: 1}),
		makeRecord(1, mood.Emotions{Happy: 1}),
	}

	trends, outliers, err := DetectTrends(records, TrendConfig{NumClusters: 1, MinClusterSize: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trends) != 0 {
		t.Errorf("expected 0 trends, got %d", len(trends))
	}
	if len(outliers) != 2 {
		t.Errorf("expected 2 outliers, got %d", len(outliers))
	}
}

func TestDetectTrends_DoesNotMutateInput(t *testing.T) {
	records := []store.Record{
		makeRecord(10, mood.Emotions{Sad: 1}),
		makeRecord(0, mood.Emotions{Sad: 1}),
		makeRecord(5, mood.Emotions{Sad: 1}),
	}
	firstID := records[0].ID

	if _, _, err := DetectTrends(records, TrendConfig{NumClusters: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if records[0].ID != firstID {
		t.Errorf("input slice was mutated: first element ID = %s, want %s", records[0].ID, firstID)
	}
}

func TestGenerateTrendName(t *testing.T) {
	tests := []struct {
		name     string
		centroid mood.Emotions
		want     string
	}{
		{
			name:     "dominant happy",
			centroid: mood.Emotions{Happy: 0.7, Neutral: 0.3},
			want:     "Mostly Happy",
		},
		{
			name:     "two strong moods",
			centroid: mood.Emotions{Happy: 0.5, Sad: 0.3, Neutral: 0.2},
			want:     "Happy & Sad",
		},
		{
			name:     "leaning",
			centroid: mood.Emotions{Angry: 0.5, Sad: 0.2, Happy: 0.2, Neutral: 0.1},
			want:     "Leaning Angry",
		},
		{
			name:     "spread out",
			centroid: mood.Emotions{Happy: 0.3, Sad: 0.2, Angry: 0.2, Neutral: 0.15, Surprised: 0.15},
			want:     "Mixed Feelings",
		},
		{
			name:     "empty distribution is calm",
			centroid: mood.Emotions{},
			want:     "Mostly Calm",
		},
		{
			name:     "unnormalized input",
			centroid: mood.Emotions{Fearful: 7, Neutral: 3},
			want:     "Mostly Anxious",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateTrendName(tt.centroid); got != tt.want {
				t.Errorf("generateTrendName() = %q, want %q", got, tt.want)
			}
		})
	}
}

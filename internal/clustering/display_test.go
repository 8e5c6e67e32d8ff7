package clustering

import (
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

func TestFormatTrendSummary(t *testing.T) {
	makeTrend := func(name string, count int) Trend {
		return Trend{
			Name:     name,
			Label:    mood.Happy,
			Centroid: mood.Emotions{Happy: 1},
			Count:    count,
			First:    baseTime,
			Last:     baseTime.Add(90 * time.Minute),
		}
	}

	tests := []struct {
		name           string
		trends         []Trend
		outliers       int
		wantContains   []string
		wantNotContain []string
	}{
		{
			name:           "no trends no outliers",
			wantContains:   []string{"No mood trends found from 0 analyses"},
			wantNotContain: []string{"outliers"},
		},
		{
			name:         "no trends with outliers",
			outliers:     1,
			wantContains: []string{"No mood trends found from 1 analysis", "(1 outliers skipped)"},
		},
		{
			name:   "single trend",
			trends: []Trend{makeTrend("Mostly Happy", 4)},
			wantContains: []string{
				"Found 1 mood trend from 4 analyses",
				"1. Mostly Happy: 2026-03-01 09:00 to 2026-03-01 10:30 (4)",
			},
			wantNotContain: []string{"trends", "outliers"},
		},
		{
			name:     "multiple trends with outliers",
			trends:   []Trend{makeTrend("Mostly Happy", 4), makeTrend("Leaning Sad", 2)},
			outliers: 3,
			wantContains: []string{
				"Found 2 mood trends from 9 analyses (3 outliers skipped)",
				"2. Leaning Sad:",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTrendSummary(tt.trends, tt.outliers)

			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot:\n%s", want, got)
				}
			}
			for _, notWant := range tt.wantNotContain {
				if strings.Contains(got, notWant) {
					t.Errorf("output should not contain %q\ngot:\n%s", notWant, got)
				}
			}
		})
	}
}

package clustering

import (
	"slices"
	"time"

	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// SessionConfig holds session detection parameters.
type SessionConfig struct {
	GapThreshold time.Duration // Pause that splits sessions (default: 1 hour)
	MinSize      int           // Minimum records per session (smaller become outliers)
}

// DefaultSessionConfig returns the recommended default configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		GapThreshold: time.Hour,
		MinSize:      2,
	}
}

// DetectSessions splits records into sessions wherever consecutive analyses
// are more than GapThreshold apart. The input slice is not modified.
// Sessions are returned newest first.
func DetectSessions(records []store.Record, cfg SessionConfig) ([]Session, []store.Record) {
	if len(records) == 0 {
		return nil, nil
	}

	defaults := DefaultSessionConfig()
	if cfg.GapThreshold <= 0 {
		cfg.GapThreshold = defaults.GapThreshold
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = defaults.MinSize
	}

	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b store.Record) int {
		return a.AnalyzedAt.Compare(b.AnalyzedAt)
	})

	var sessions []Session
	var outliers []store.Record

	flush := func(group []store.Record) {
		if len(group) < cfg.MinSize {
			outliers = append(outliers, group...)
			return
		}
		sessions = append(sessions, Session{
			Records:  group,
			Dominant: dominantLabel(group),
			Count:    len(group),
			Start:    group[0].AnalyzedAt,
			End:      group[len(group)-1].AnalyzedAt,
		})
	}

	start := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].AnalyzedAt.Sub(sorted[i-1].AnalyzedAt) > cfg.GapThreshold {
			flush(sorted[start:i])
			start = i
		}
	}
	flush(sorted[start:])

	slices.Reverse(sessions)
	return sessions, outliers
}

// dominantLabel returns the most frequent mood; ties go to the canonical order.
func dominantLabel(group []store.Record) mood.Label {
	counts := make(map[mood.Label]int)
	for _, r := range group {
		counts[r.Mood]++
	}
	best := mood.DefaultLabel
	bestN := 0
	for _, l := range mood.Labels() {
		if counts[l] > bestN {
			best, bestN = l, counts[l]
		}
	}
	return best
}

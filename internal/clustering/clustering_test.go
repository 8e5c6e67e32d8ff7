package clustering

import (
	"testing"
	"time"

	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/store"
)

func TestDetectSessions(t *testing.T) {
	happy := mood.Emotions{Happy: 1}
	sad := mood.Emotions{Sad: 1}

	tests := []struct {
		name         string
		records      []store.Record
		cfg          SessionConfig
		wantSessions int
		wantOutliers int
	}{
		{
			name:         "empty input",
			records:      nil,
			cfg:          DefaultSessionConfig(),
			wantSessions: 0,
			wantOutliers: 0,
		},
		{
			name:         "single analysis becomes outlier",
			records:      []store.Record{makeRecord(0, happy)},
			cfg:          DefaultSessionConfig(),
			wantSessions: 0,
			wantOutliers: 1,
		},
		{
			name: "all continuous - one session",
			records: []store.Record{
				makeRecord(0, happy),
				makeRecord(10, happy),
				makeRecord(20, sad),
			},
			cfg:          DefaultSessionConfig(),
			wantSessions: 1,
			wantOutliers: 0,
		},
		{
			name: "gap splits sessions",
			records: []store.Record{
				makeRecord(0, happy),
				makeRecord(10, happy),
				makeRecord(300, sad),
				makeRecord(310, sad),
			},
			cfg:          DefaultSessionConfig(),
			wantSessions: 2,
			wantOutliers: 0,
		},
		{
			name: "gap exactly at threshold does not split",
			records: []store.Record{
				makeRecord(0, happy),
				makeRecord(60, happy),
			},
			cfg:          DefaultSessionConfig(),
			wantSessions: 1,
			wantOutliers: 0,
		},
		{
			name: "isolated analysis between sessions",
			records: []store.Record{
				makeRecord(0, happy),
				makeRecord(5, happy),
				makeRecord(200, sad),
				makeRecord(400, sad),
				makeRecord(405, sad),
			},
			cfg:          DefaultSessionConfig(),
			wantSessions: 2,
			wantOutliers: 1,
		},
		{
			name: "custom threshold",
			records: []store.Record{
				makeRecord(0, happy),
				makeRecord(10, happy),
				makeRecord(20, happy),
			},
			cfg:          SessionConfig{GapThreshold: 5 * time.Minute, MinSize: 1},
			wantSessions: 3,
			wantOutliers: 0,
		},
		{
			name: "zero config uses defaults",
			records: []store.Record{
				makeRecord(0, happy),
				makeRecord(30, happy),
			},
			cfg:          SessionConfig{},
			wantSessions: 1,
			wantOutliers: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, outliers := DetectSessions(tt.records, tt.cfg)

			if len(sessions) != tt.wantSessions {
				t.Errorf("got %d sessions, want %d", len(sessions), tt.wantSessions)
			}
			if len(outliers) != tt.wantOutliers {
				t.Errorf("got %d outliers, want %d", len(outliers), tt.wantOutliers)
			}
		})
	}
}

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig()

	if cfg.GapThreshold != time.Hour {
		t.Errorf("GapThreshold = %v, want 1h", cfg.GapThreshold)
	}
	if cfg.MinSize != 2 {
		t.Errorf("MinSize = %d, want 2", cfg.MinSize)
	}
}

func TestSessionsNewestFirst(t *testing.T) {
	records := []store.Record{
		makeRecord(0, mood.Emotions{Happy: 1}),
		makeRecord(5, mood.Emotions{Happy: 1}),
		makeRecord(500, mood.Emotions{Sad: 1}),
		makeRecord(505, mood.Emotions{Sad: 1}),
		makeRecord(510, mood.Emotions{Happy: 1}),
	}

	sessions, _ := DetectSessions(records, DefaultSessionConfig())
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	if !sessions[0].Start.After(sessions[1].End) {
		t.Errorf("sessions not newest first: %v then %v", sessions[0].Start, sessions[1].Start)
	}
	if sessions[0].Dominant != mood.Sad {
		t.Errorf("newest session Dominant = %s, want Sad", sessions[0].Dominant)
	}
	if sessions[0].Count != 3 {
		t.Errorf("newest session Count = %d, want 3", sessions[0].Count)
	}
	if !sessions[1].Start.Equal(records[0].AnalyzedAt) || !sessions[1].End.Equal(records[1].AnalyzedAt) {
		t.Errorf("oldest session bounds = %v..%v", sessions[1].Start, sessions[1].End)
	}
}

func TestDominantLabelTieUsesCanonicalOrder(t *testing.T) {
	group := []store.Record{
		makeRecord(0, mood.Emotions{Sad: 1}),
		makeRecord(1, mood.Emotions{Happy: 1}),
	}
	if got := dominantLabel(group); got != mood.Happy {
		t.Errorf("dominantLabel() = %s, want Happy", got)
	}
}

func TestDetectSessionsDoesNotMutateInput(t *testing.T) {
	records := []store.Record{
		makeRecord(20, mood.Emotions{Happy: 1}),
		makeRecord(0, mood.Emotions{Happy: 1}),
		makeRecord(10, mood.Emotions{Happy: 1}),
	}
	firstID := records[0].ID

	DetectSessions(records, DefaultSessionConfig())

	if records[0].ID != firstID {
		t.Errorf("input slice was mutated: first element ID = %s, want %s", records[0].ID, firstID)
	}
}

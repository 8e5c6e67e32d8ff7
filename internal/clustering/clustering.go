// Package clustering finds recurring moods and analysis sessions in mood history.
package clustering

import (
	"time"

	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// Trend is a group of analyses with similar emotion distributions.
type Trend struct {
	Name     string         `json:"name"`     // Descriptive name: "Mostly Happy"
	Label    mood.Label     `json:"mood"`     // Mood of the centroid's dominant emotion
	Centroid mood.Emotions  `json:"centroid"` // Average distribution of the group
	Records  []store.Record `json:"-"`        // Members, oldest first
	Count    int            `json:"count"`
	First    time.Time      `json:"first"`
	Last     time.Time      `json:"last"`
}

// Session is a run of analyses with no long pause between them.
type Session struct {
	Records  []store.Record `json:"-"` // Members, oldest first
	Dominant mood.Label     `json:"mood"`
	Count    int            `json:"count"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
}

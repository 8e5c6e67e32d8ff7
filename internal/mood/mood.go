// Package mood defines mood labels, emotion distributions, and analysis results.
package mood

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Label is a user-facing mood name.
type Label string

// The closed set of mood labels.
const (
	Happy     Label = "Happy"
	Sad       Label = "Sad"
	Angry     Label = "Angry"
	Calm      Label = "Calm"
	Anxious   Label = "Anxious"
	Surprised Label = "Surprised"
	Disgusted Label = "Disgusted"
)

// DefaultLabel is used whenever a label lookup misses.
const DefaultLabel = Calm

// Labels returns every known label in display order.
func Labels() []Label {
	return []Label{Happy, Sad, Angry, Calm, Anxious, Surprised, Disgusted}
}

// ParseLabel matches s case-insensitively against the known labels.
func ParseLabel(s string) (Label, bool) {
	trimmed := strings.TrimSpace(s)
	for _, l := range Labels() {
		if strings.EqualFold(string(l), trimmed) {
			return l, true
		}
	}
	return "", false
}

// LabelOrDefault parses s and falls back to DefaultLabel.
func LabelOrDefault(s string) Label {
	if l, ok := ParseLabel(s); ok {
		return l
	}
	return DefaultLabel
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// Emotion is a technical expression key as reported by the face-analysis service.
type Emotion string

const (
	EmotionAngry     Emotion = "angry"
	EmotionDisgusted Emotion = "disgusted"
	EmotionFearful   Emotion = "fearful"
	EmotionHappy     Emotion = "happy"
	EmotionNeutral   Emotion = "neutral"
	EmotionSad       Emotion = "sad"
	EmotionSurprised Emotion = "surprised"
)

// emotionOrder fixes iteration order so argmax ties resolve deterministically.
var emotionOrder = []Emotion{
	EmotionAngry,
	EmotionDisgusted,
	EmotionFearful,
	EmotionHappy,
	EmotionNeutral,
	EmotionSad,
	EmotionSurprised,
}

var emotionLabels = map[Emotion]Label{
	EmotionAngry:     Angry,
	EmotionDisgusted: Disgusted,
	EmotionFearful:   Anxious,
	EmotionHappy:     Happy,
	EmotionNeutral:   Calm,
	EmotionSad:       Sad,
	EmotionSurprised: Surprised,
}

// EmotionKeys returns the seven emotion keys in canonical order.
func EmotionKeys() []Emotion {
	return append([]Emotion(nil), emotionOrder...)
}

// LabelFor maps an emotion to its mood label.
func LabelFor(e Emotion) Label {
	if l, ok := emotionLabels[e]; ok {
		return l
	}
	return DefaultLabel
}

// Emotions is a distribution over the seven emotion keys.
type Emotions struct {
	Angry     float64 `json:"angry" toml:"angry"`
	Disgusted float64 `json:"disgusted" toml:"disgusted"`
	Fearful   float64 `json:"fearful" toml:"fearful"`
	Happy     float64 `json:"happy" toml:"happy"`
	Neutral   float64 `json:"neutral" toml:"neutral"`
	Sad       float64 `json:"sad" toml:"sad"`
	Surprised float64 `json:"surprised" toml:"surprised"`
}

// Get returns the value stored for e.
func (em Emotions) Get(e Emotion) float64 {
	switch e {
	case EmotionAngry:
		return em.Angry
	case EmotionDisgusted:
		return em.Disgusted
	case EmotionFearful:
		return em.Fearful
	case EmotionHappy:
		return em.Happy
	case EmotionNeutral:
		return em.Neutral
	case EmotionSad:
		return em.Sad
	case EmotionSurprised:
		return em.Surprised
	}
	return 0
}

// Set stores v under e. Unknown keys are ignored.
func (em *Emotions) Set(e Emotion, v float64) {
	switch e {
	case EmotionAngry:
		em.Angry = v
	case EmotionDisgusted:
		em.Disgusted = v
	case EmotionFearful:
		em.Fearful = v
	case EmotionHappy:
		em.Happy = v
	case EmotionNeutral:
		em.Neutral = v
	case EmotionSad:
		em.Sad = v
	case EmotionSurprised:
		em.Surprised = v
	}
}

// Vector returns the values in canonical key order.
func (em Emotions) Vector() []float64 {
	v := make([]float64, len(emotionOrder))
	for i, e := range emotionOrder {
		v[i] = em.Get(e)
	}
	return v
}

// FromVector builds Emotions from a canonical-order vector.
// Missing trailing values are treated as zero.
func FromVector(v []float64) Emotions {
	var em Emotions
	for i, e := range emotionOrder {
		if i < len(v) {
			em.Set(e, v[i])
		}
	}
	return em
}

// Sum returns the total of all seven values.
func (em Emotions) Sum() float64 {
	var total float64
	for _, e := range emotionOrder {
		total += em.Get(e)
	}
	return total
}

// Normalize clamps negative values to zero and rescales so the values sum to 1.
// A distribution with no mass becomes entirely neutral.
func (em Emotions) Normalize() Emotions {
	var out Emotions
	var total float64
	for _, e := range emotionOrder {
		v := em.Get(e)
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		out.Set(e, v)
		total += v
	}
	if total == 0 || math.IsInf(total, 0) {
		return Emotions{Neutral: 1}
	}
	for _, e := range emotionOrder {
		out.Set(e, out.Get(e)/total)
	}
	return out
}

// Dominant returns the emotion with the largest value. Ties go to the
// earlier key in canonical order; an all-zero distribution is neutral.
func (em Emotions) Dominant() (Emotion, float64) {
	best := EmotionNeutral
	bestVal := 0.0
	for _, e := range emotionOrder {
		if v := em.Get(e); v > bestVal {
			best = e
			bestVal = v
		}
	}
	return best, bestVal
}

// Result is the outcome of one mood analysis.
type Result struct {
	Mood       Label    `json:"mood"`
	Confidence float64  `json:"confidence"`
	Emotions   Emotions `json:"emotions"`
}

// NewResult normalizes em and derives the dominant mood and its confidence.
func NewResult(em Emotions) Result {
	norm := em.Normalize()
	dominant, confidence := norm.Dominant()
	return Result{
		Mood:       LabelFor(dominant),
		Confidence: confidence,
		Emotions:   norm,
	}
}

// Tolerance for the emotion-sum invariant.
const sumTolerance = 1e-6

// ErrInvalidResult is returned when a result violates the result invariants.
var ErrInvalidResult = errors.New("invalid mood result")

// Validate checks the label, the confidence range, and the emotion distribution.
func (r Result) Validate() error {
	if !r.Mood.Valid() {
		return fmt.Errorf("%w: unknown mood %q", ErrInvalidResult, r.Mood)
	}
	if r.Confidence < 0 || r.Confidence > 1 || math.IsNaN(r.Confidence) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidResult, r.Confidence)
	}
	for _, e := range emotionOrder {
		if v := r.Emotions.Get(e); v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: emotion %s is %v", ErrInvalidResult, e, v)
		}
	}
	if sum := r.Emotions.Sum(); math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: emotions sum to %v", ErrInvalidResult, sum)
	}
	return nil
}

package mood

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Scenario is a hand-authored emotion distribution used to seed mock results.
type Scenario struct {
	Name     string
	Emotions Emotions
}

// DefaultScenarios mirrors the distributions produced by the demo analysis server.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "happy", Emotions: Emotions{Happy: 0.72, Neutral: 0.18, Surprised: 0.06, Sad: 0.02, Angry: 0.01, Fearful: 0.01}},
		{Name: "sad", Emotions: Emotions{Sad: 0.65, Neutral: 0.2, Angry: 0.08, Fearful: 0.04, Happy: 0.02, Surprised: 0.01}},
		{Name: "neutral", Emotions: Emotions{Neutral: 0.55, Happy: 0.2, Sad: 0.12, Surprised: 0.08, Angry: 0.03, Fearful: 0.02}},
		{Name: "surprised", Emotions: Emotions{Surprised: 0.58, Happy: 0.22, Neutral: 0.15, Fearful: 0.03, Angry: 0.01, Sad: 0.01}},
		{Name: "angry", Emotions: Emotions{Angry: 0.6, Disgusted: 0.15, Neutral: 0.15, Sad: 0.06, Fearful: 0.03, Surprised: 0.01}},
		{Name: "calm", Emotions: Emotions{Neutral: 0.68, Happy: 0.25, Sad: 0.04, Surprised: 0.02, Angry: 0.01}},
	}
}

// DefaultJitter is the half-width of the uniform perturbation applied per emotion.
const DefaultJitter = 0.1

// Generator fabricates plausible mood results when no real analysis is available.
// It is safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	scenarios []Scenario
	jitter    float64
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed uint64) GeneratorOption {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithJitter sets the perturbation half-width. Negative values are ignored.
func WithJitter(j float64) GeneratorOption {
	return func(g *Generator) {
		if j >= 0 {
			g.jitter = j
		}
	}
}

// WithScenarios replaces the scenario set. An empty set is ignored.
func WithScenarios(s []Scenario) GeneratorOption {
	return func(g *Generator) {
		if len(s) > 0 {
			g.scenarios = append([]Scenario(nil), s...)
		}
	}
}

// NewGenerator creates a Generator seeded from the clock unless WithSeed is given.
func NewGenerator(opts ...GeneratorOption) *Generator {
	now := uint64(time.Now().UnixNano())
	g := &Generator{
		rng:       rand.New(rand.NewPCG(now, now>>1)),
		scenarios: DefaultScenarios(),
		jitter:    DefaultJitter,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate picks a scenario uniformly, jitters each emotion independently,
// clamps at zero, renormalizes, and derives the dominant mood.
func (g *Generator) Generate() Result {
	g.mu.Lock()
	scenario := g.scenarios[g.rng.IntN(len(g.scenarios))]
	var em Emotions
	for _, e := range emotionOrder {
		// uniform in [-jitter, +jitter)
		variation := (g.rng.Float64() - 0.5) * 2 * g.jitter
		v := scenario.Emotions.Get(e) + variation
		if v < 0 {
			v = 0
		}
		em.Set(e, v)
	}
	g.mu.Unlock()

	return NewResult(em)
}

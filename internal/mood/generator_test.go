package mood

import (
	"math"
	"sync"
	"testing"
)

func TestGenerator_Invariants(t *testing.T) {
	g := NewGenerator(WithSeed(42))

	for i := 0; i < 1000; i++ {
		r := g.Generate()

		var sum float64
		for _, e := range EmotionKeys() {
			v := r.Emotions.Get(e)
			if v < 0 {
				t.Fatalf("iteration %d: %s = %v, want >= 0", i, e, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("iteration %d: emotions sum to %v, want 1", i, sum)
		}

		dominant, val := r.Emotions.Dominant()
		if r.Mood != LabelFor(dominant) {
			t.Fatalf("iteration %d: Mood = %q, want %q (argmax %s)", i, r.Mood, LabelFor(dominant), dominant)
		}
		if r.Confidence != val {
			t.Fatalf("iteration %d: Confidence = %v, want %v", i, r.Confidence, val)
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("iteration %d: Validate() error = %v", i, err)
		}
	}
}

func TestGenerator_DeterministicForSeed(t *testing.T) {
	a := NewGenerator(WithSeed(7))
	b := NewGenerator(WithSeed(7))

	for i := 0; i < 50; i++ {
		ra, rb := a.Generate(), b.Generate()
		if ra != rb {
			t.Fatalf("iteration %d: results differ for same seed: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestGenerator_ZeroJitterReproducesScenario(t *testing.T) {
	scenario := Scenario{Name: "sad", Emotions: Emotions{Sad: 0.6, Neutral: 0.4}}
	g := NewGenerator(WithSeed(1), WithJitter(0), WithScenarios([]Scenario{scenario}))

	r := g.Generate()
	if r.Mood != Sad {
		t.Errorf("Mood = %q, want %q", r.Mood, Sad)
	}
	if math.Abs(r.Confidence-0.6) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.6", r.Confidence)
	}
}

func TestGenerator_CoversEveryScenario(t *testing.T) {
	g := NewGenerator(WithSeed(3), WithJitter(0))
	seen := make(map[Label]bool)
	for i := 0; i < 500; i++ {
		seen[g.Generate().Mood] = true
	}
	for _, want := range []Label{Happy, Sad, Calm, Surprised, Angry} {
		if !seen[want] {
			t.Errorf("mood %q never generated in 500 draws", want)
		}
	}
}

func TestGenerator_ConcurrentUse(t *testing.T) {
	g := NewGenerator()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := g.Generate().Validate(); err != nil {
					t.Errorf("Validate() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

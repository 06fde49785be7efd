package eval

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/catchsynth/catchsynth/catcher"
	"github.com/catchsynth/catchsynth/dsl"
	"github.com/catchsynth/catchsynth/synthesizer/anneal"
)

// TestSynthesisConvergesOnCatcher runs the full annealing loop against real
// Catcher episodes and expects it to find a max-score program. The grammar
// is narrowed to single-comparison programs so the search space stays small
// enough for the short budget, but nothing about the loop itself is stubbed.
func TestSynthesisConvergesOnCatcher(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-second search budget")
	}

	// Small board, one seeded episode: fast to evaluate, and a fruit chaser
	// still has time to cross the whole screen before a drop lands.
	settings := catcher.Settings{
		Width:       32,
		Height:      32,
		PaddleWidth: 8,
		PlayerSpeed: 2,
		FruitSpeed:  1,
		MaxDrops:    10,
	}
	evalCfg := Config{Episodes: 1, Seed: 1, Settings: settings}
	e := New(evalCfg)

	grammar := &dsl.Grammar{
		Arrays:       []string{"actions"},
		ArrayIndexes: []int{0, 1}, // left, right
		Scalars:      []string{"paddle_width"},
		Constants:    []float64{0},
		Roots:        []dsl.Kind{dsl.KindITE},
	}

	cfg := anneal.DefaultConfig()
	cfg.MaxDepth = 1
	cfg.MaxSize = 12
	cfg.TimeLimit = 5 * time.Second

	s := &anneal.Synthesizer{
		Config:  cfg,
		Grammar: grammar,
		Eval:    e,
		Rng:     rand.New(rand.NewSource(7)),
	}

	best, bestScore := s.Synthesize(context.Background())
	if best == nil {
		t.Fatal("search returned no program")
	}
	if err := dsl.CheckCorrectSize(best); err != nil {
		t.Fatalf("best program has corrupt size bookkeeping: %v", err)
	}
	if bestScore != e.MaxScore() {
		t.Fatalf("best score = %v, want max %v\n%s", bestScore, e.MaxScore(), best)
	}

	// A max scorer on this grammar has to compare the two positions and
	// steer with both actions; the exact comparison found may vary.
	rendering := best.String()
	for _, want := range []string{"PlayerPosition", "FallingFruitPosition", "return actions["} {
		if !strings.Contains(rendering, want) {
			t.Errorf("best program lacks %q:\n%s", want, rendering)
		}
	}

	// The reported score must be reproducible from the program alone.
	components, again := e.Evaluate(best)
	if again != bestScore {
		t.Errorf("re-evaluation scored %v, first run %v", again, bestScore)
	}
	if components[1] != 0 {
		t.Errorf("max scorer missed %v fruits", components[1])
	}
}

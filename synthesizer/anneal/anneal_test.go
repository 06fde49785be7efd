package anneal

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/catchsynth/catchsynth/dsl"
)

// tableEvaluator scores a program by interpreting it once against a fixed
// environment: 2 for picking action index 1, 1 for any other action, 0 for
// no decision, the sentinel for a fault.
type tableEvaluator struct{}

func (tableEvaluator) Evaluate(p dsl.Node) ([]float64, float64) {
	env := &dsl.Env{
		State:   map[string]float64{"player_position": 1, "fruit_position": 2},
		Scalars: map[string]float64{"paddle_width": 4},
		Actions: []int{10, 11, 12},
	}
	v, err := p.Interpret(env)
	if err != nil {
		return nil, FailedScore
	}
	switch v.Kind {
	case dsl.ValueAction:
		if v.Action == 11 {
			return []float64{2}, 2
		}
		return []float64{1}, 1
	case dsl.ValueNone:
		return []float64{0}, 0
	default:
		return nil, FailedScore
	}
}

func TestAcceptanceProbability(t *testing.T) {
	if p := acceptanceProbability(0, 100, 50); p != 1 {
		t.Errorf("delta 0: p = %v, want 1", p)
	}
	if p := acceptanceProbability(5, 100, 50); p != 1 {
		t.Errorf("improving delta: p = %v, want 1", p)
	}

	hot := acceptanceProbability(-1, 100, 100)
	cold := acceptanceProbability(-1, 100, 1)
	if hot <= 0 || hot >= 1 {
		t.Errorf("hot p = %v, want in (0,1)", hot)
	}
	if cold >= hot {
		t.Errorf("cooling must shrink acceptance: hot %v, cold %v", hot, cold)
	}
}

func TestReduceTemp(t *testing.T) {
	cfg := DefaultConfig()

	// Epoch 0 leaves the temperature unchanged.
	if temp := reduceTemp(cfg, 100, 0); temp != 100 {
		t.Errorf("epoch 0: temp = %v, want 100", temp)
	}

	temp := cfg.InitialTemp
	epochs := 0
	for epoch := 1; temp > cfg.FinalTemp; epoch++ {
		next := reduceTemp(cfg, temp, epoch)
		if next >= temp {
			t.Fatalf("epoch %d: temp rose from %v to %v", epoch, temp, next)
		}
		temp = next
		epochs++
		if epochs > 1000 {
			t.Fatal("cooling never reached the floor")
		}
	}
}

func TestSynthesizeFindsBestTableEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeLimit = 300 * time.Millisecond

	s := &Synthesizer{
		Config:  cfg,
		Grammar: testGrammar(),
		Eval:    tableEvaluator{},
		Rng:     rand.New(rand.NewSource(11)),
	}

	best, score := s.Synthesize(context.Background())
	if best == nil {
		t.Fatal("no program found")
	}
	if score != 2 {
		t.Fatalf("best score = %v, want 2 (program %s)", score, best)
	}
	if err := dsl.CheckCorrectSize(best); err != nil {
		t.Fatalf("best program invalid: %v", err)
	}
}

func TestSynthesizeReportsEpochs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeLimit = 100 * time.Millisecond

	var stats []EpochStat
	s := &Synthesizer{
		Config:  cfg,
		Grammar: testGrammar(),
		Eval:    tableEvaluator{},
		Rng:     rand.New(rand.NewSource(5)),
		OnEpoch: func(st EpochStat) { stats = append(stats, st) },
	}
	s.Synthesize(context.Background())

	if len(stats) == 0 {
		t.Fatal("no epoch stats surfaced")
	}
	for _, st := range stats {
		if st.Score == FailedScore {
			t.Fatalf("sentinel score surfaced at restart %d epoch %d", st.Restart, st.Epoch)
		}
		if st.Program == nil {
			t.Fatalf("nil program surfaced at restart %d epoch %d", st.Restart, st.Epoch)
		}
		if st.Temperature <= cfg.FinalTemp {
			t.Fatalf("epoch ran below the temperature floor: %+v", st)
		}
	}
}

func TestSynthesizeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.TimeLimit = time.Hour

	s := &Synthesizer{
		Config:  cfg,
		Grammar: testGrammar(),
		Eval:    tableEvaluator{},
		Rng:     rand.New(rand.NewSource(1)),
	}

	done := make(chan struct{})
	go func() {
		s.Synthesize(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Synthesize ignored a cancelled context")
	}
}

// countingOptimizer records invocations and passes candidates through.
type countingOptimizer struct {
	calls int
}

func (o *countingOptimizer) Optimize(p dsl.Node, score float64) (dsl.Node, []float64, float64, bool) {
	o.calls++
	return p.Clone(), nil, score, false
}

func TestSynthesizeFlushesOptimizerBatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeLimit = 100 * time.Millisecond
	cfg.Optimize = true
	cfg.BatchSize = 3

	opt := &countingOptimizer{}
	s := &Synthesizer{
		Config:  cfg,
		Grammar: testGrammar(),
		Eval:    tableEvaluator{},
		Opt:     opt,
		Rng:     rand.New(rand.NewSource(9)),
	}
	s.Synthesize(context.Background())

	if opt.calls == 0 {
		t.Fatal("optimizer never invoked")
	}
	if opt.calls%cfg.BatchSize != 0 {
		t.Errorf("optimizer calls = %d, want a multiple of batch size %d", opt.calls, cfg.BatchSize)
	}
}

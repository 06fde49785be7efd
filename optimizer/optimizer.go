// Package optimizer tunes the numeric constants of a candidate program
// without changing its shape. It is plugged into the annealing driver
// behind the anneal.Optimizer interface so the driver never has to know
// how constants get adjusted.
package optimizer

import (
	"math/rand"
	"sync"
	"time"

	"github.com/catchsynth/catchsynth/dsl"
)

// Evaluator scores a program. Satisfied by eval.CatcherEvaluator.
type Evaluator interface {
	Evaluate(p dsl.Node) (components []float64, score float64)
}

// Config holds the hill-climber knobs.
type Config struct {
	// Iterations is the number of perturbation rounds per constant.
	Iterations int
	// Triage enables early abandonment: after the first round, programs
	// whose score is below Kappa times the incoming score are dropped
	// without spending the remaining rounds.
	Triage bool
	// Kappa is the triage cutoff fraction.
	Kappa float64
	// Steps are the candidate deltas applied to each constant.
	Steps []float64
}

// DefaultConfig mirrors the knobs that work well for the catcher task.
func DefaultConfig() Config {
	return Config{
		Iterations: 8,
		Triage:     true,
		Kappa:      0.5,
		Steps:      []float64{-4, -2, -1, 1, 2, 4},
	}
}

// ConstantOptimizer hill-climbs the free constants of a program.
type ConstantOptimizer struct {
	cfg  Config
	eval Evaluator

	// The driver flushes optimizer batches from several goroutines, so
	// draws from the shared rng are serialized.
	mu  sync.Mutex
	rng *rand.Rand
}

// New builds an optimizer around an evaluator. A nil rng gets a
// time-seeded one.
func New(cfg Config, eval Evaluator, rng *rand.Rand) *ConstantOptimizer {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	if len(cfg.Steps) == 0 {
		cfg.Steps = DefaultConfig().Steps
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ConstantOptimizer{cfg: cfg, eval: eval, rng: rng}
}

// perm draws a permutation from the shared rng.
func (o *ConstantOptimizer) perm(n int) []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Perm(n)
}

// Optimize tunes the constants of p and returns the tuned program, the
// final constant values, the tuned score, and whether it improved on
// the incoming score. The input program is never modified.
func (o *ConstantOptimizer) Optimize(p dsl.Node, score float64) (dsl.Node, []float64, float64, bool) {
	tuned := p.Clone()
	consts := freeConstants(tuned)
	if len(consts) == 0 {
		return tuned, nil, score, false
	}

	best := score
	for round := 0; round < o.cfg.Iterations; round++ {
		improvedRound := false
		// Visiting the constants in a fresh random order each round keeps
		// coordinate ascent from always privileging the leftmost constant.
		for _, ci := range o.perm(len(consts)) {
			c := consts[ci]
			orig := c.Value
			for _, step := range o.cfg.Steps {
				c.SetValue(orig + step)
				if _, s := o.eval.Evaluate(tuned); s > best {
					best = s
					orig = c.Value
					improvedRound = true
				} else {
					c.SetValue(orig)
				}
			}
		}
		if o.cfg.Triage && round == 0 && !improvedRound && best < o.cfg.Kappa*score {
			break
		}
		if !improvedRound {
			break
		}
	}

	values := make([]float64, len(consts))
	for i, c := range consts {
		values[i] = c.Value
	}
	return tuned, values, best, best > score
}

// freeConstants collects the tunable constants of a program in preorder.
// Constants serving as array indexes are grammar-fixed and skipped.
func freeConstants(n dsl.Node) []*dsl.Constant {
	var out []*dsl.Constant
	var walk func(n dsl.Node)
	walk = func(n dsl.Node) {
		if n == nil {
			return
		}
		if n.Kind() == dsl.KindVarFromArray {
			return
		}
		if c, ok := n.(*dsl.Constant); ok {
			out = append(out, c)
			return
		}
		for _, kid := range n.Children() {
			walk(kid)
		}
	}
	walk(n)
	return out
}

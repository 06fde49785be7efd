// Package eval scores candidate strategy programs by playing Catcher
// episodes with them.
package eval

import (
	"math/rand"

	"github.com/catchsynth/catchsynth/catcher"
	"github.com/catchsynth/catchsynth/dsl"
	"github.com/catchsynth/catchsynth/synthesizer/anneal"
)

// Actions is the discrete action set exposed to programs, in the order the
// grammar's array indices address them.
var Actions = []catcher.Action{catcher.ActionLeft, catcher.ActionRight, catcher.ActionNoop}

type Config struct {
	Episodes int
	Seed     int64
	Settings catcher.Settings
}

func DefaultConfig() Config {
	return Config{
		Episodes: 4,
		Seed:     1,
		Settings: catcher.DefaultSettings,
	}
}

// CatcherEvaluator plays a fixed set of seeded episodes per candidate, so
// the same program always receives the same score. Any interpret fault
// (division by zero, out-of-range action index, non-action result) yields
// the failure sentinel rather than an error.
type CatcherEvaluator struct {
	cfg Config
}

func New(cfg Config) *CatcherEvaluator {
	if cfg.Episodes <= 0 {
		cfg.Episodes = 1
	}
	return &CatcherEvaluator{cfg: cfg}
}

// MaxScore is the score of a program that catches every fruit in every
// episode.
func (e *CatcherEvaluator) MaxScore() float64 {
	return float64(int32(e.cfg.Episodes) * e.cfg.Settings.MaxDrops)
}

// Evaluate plays the configured episodes and returns
// ([caught, missed], caught - missed) summed across episodes.
func (e *CatcherEvaluator) Evaluate(p dsl.Node) ([]float64, float64) {
	var caught, missed int32

	for ep := 0; ep < e.cfg.Episodes; ep++ {
		rng := rand.New(rand.NewSource(e.cfg.Seed + int64(ep)))
		state := catcher.NewState(rng, e.cfg.Settings)

		for !catcher.IsDone(state, e.cfg.Settings) {
			action, ok := decide(p, state)
			if !ok {
				return nil, anneal.FailedScore
			}
			state = catcher.Step(state, action, rng)
		}

		caught += state.Caught
		missed += state.Missed
	}

	return []float64{float64(caught), float64(missed)}, float64(caught - missed)
}

// decide interprets the program against the current state. A None result
// is a deliberate no-op; anything other than an action or None marks the
// program as invalid.
func decide(p dsl.Node, state *catcher.State) (catcher.Action, bool) {
	env := BuildEnv(state)
	v, err := p.Interpret(env)
	if err != nil {
		return catcher.ActionNoop, false
	}
	switch v.Kind {
	case dsl.ValueAction:
		return catcher.Action(v.Action), true
	case dsl.ValueNone:
		return catcher.ActionNoop, true
	default:
		return catcher.ActionNoop, false
	}
}

// BuildEnv exposes a Catcher state to the interpreter: the two position
// readings, the paddle width scalar, and the action set.
func BuildEnv(state *catcher.State) *dsl.Env {
	actions := make([]int, len(Actions))
	for i, a := range Actions {
		actions[i] = int(a)
	}
	return &dsl.Env{
		State: map[string]float64{
			"player_position": state.PlayerX,
			"fruit_position":  state.FruitX,
		},
		Scalars: map[string]float64{
			"paddle_width": state.PaddleWidth,
		},
		Actions: actions,
	}
}

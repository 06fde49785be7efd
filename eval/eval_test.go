package eval

import (
	"testing"

	"github.com/catchsynth/catchsynth/catcher"
	"github.com/catchsynth/catchsynth/dsl"
	"github.com/catchsynth/catchsynth/synthesizer/anneal"
)

// chasePerfect always moves toward the fruit: right when the paddle is left
// of it, left otherwise. Fast enough to catch every drop.
func chasePerfect() dsl.Node {
	return dsl.NewStrategy(
		dsl.NewITE(
			dsl.NewLessThan(dsl.NewPlayerPosition(), dsl.NewFallingFruitPosition()),
			dsl.NewReturnAction(dsl.NewVarFromArray("actions", dsl.NewConstant(1))), // right
			dsl.NewReturnAction(dsl.NewVarFromArray("actions", dsl.NewConstant(0))), // left
		),
		nil,
	)
}

func TestPerfectProgramScoresMax(t *testing.T) {
	e := New(DefaultConfig())

	components, score := e.Evaluate(chasePerfect())
	if score != e.MaxScore() {
		t.Fatalf("score = %v, want max %v (components %v)", score, e.MaxScore(), components)
	}
	if components[1] != 0 {
		t.Errorf("perfect chaser missed %v fruits", components[1])
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	e := New(DefaultConfig())
	p := chasePerfect()

	_, a := e.Evaluate(p)
	_, b := e.Evaluate(p)
	if a != b {
		t.Errorf("same program scored %v then %v", a, b)
	}
}

func TestFaultingProgramGetsSentinel(t *testing.T) {
	e := New(DefaultConfig())

	// actions[9] is out of range on every tick.
	p := dsl.NewReturnAction(dsl.NewVarFromArray("actions", dsl.NewConstant(9)))
	if _, score := e.Evaluate(p); score != anneal.FailedScore {
		t.Errorf("score = %v, want sentinel", score)
	}
}

func TestNoDecisionMeansNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 1
	e := New(cfg)

	// Condition can never hold, so every tick falls through to Noop. The
	// episode still resolves all drops with a legitimate (bad) score.
	p := dsl.NewStrategy(
		dsl.NewIT(
			dsl.NewGreaterThan(dsl.NewPlayerPosition(), dsl.NewConstant(1e9)),
			dsl.NewReturnAction(dsl.NewVarFromArray("actions", dsl.NewConstant(0))),
		),
		nil,
	)

	components, score := e.Evaluate(p)
	if score == anneal.FailedScore {
		t.Fatal("idle program treated as faulty")
	}
	resolved := components[0] + components[1]
	if resolved != float64(cfg.Settings.MaxDrops) {
		t.Errorf("resolved %v drops, want %d", resolved, cfg.Settings.MaxDrops)
	}
}

func TestBuildEnv(t *testing.T) {
	state := &catcher.State{PlayerX: 12, FruitX: 40, PaddleWidth: 8}

	env := BuildEnv(state)
	if env.State["player_position"] != 12 || env.State["fruit_position"] != 40 {
		t.Errorf("position readings = %v", env.State)
	}
	if env.Scalars["paddle_width"] != 8 {
		t.Errorf("paddle width = %v", env.Scalars)
	}
	if len(env.Actions) != len(Actions) {
		t.Fatalf("actions = %v", env.Actions)
	}
	for i, a := range Actions {
		if env.Actions[i] != int(a) {
			t.Errorf("actions[%d] = %d, want %d", i, env.Actions[i], int(a))
		}
	}
}

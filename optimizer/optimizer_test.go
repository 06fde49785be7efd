package optimizer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/catchsynth/catchsynth/dsl"
)

// targetEvaluator scores a numeric expression by its distance to a target
// value: 0 is perfect, more negative is worse.
type targetEvaluator struct {
	target float64
}

func (e targetEvaluator) Evaluate(p dsl.Node) ([]float64, float64) {
	env := &dsl.Env{
		State:   map[string]float64{"player_position": 0, "fruit_position": 0},
		Scalars: map[string]float64{"paddle_width": 0},
		Actions: []int{0},
	}
	v, err := p.Interpret(env)
	if err != nil || v.Kind != dsl.ValueNumber {
		return nil, -1e9
	}
	score := -math.Abs(v.Num - e.target)
	return []float64{v.Num}, score
}

func TestOptimizeImprovesConstant(t *testing.T) {
	e := targetEvaluator{target: 7}
	o := New(DefaultConfig(), e, rand.New(rand.NewSource(1)))

	p := dsl.NewPlus(dsl.NewConstant(3), dsl.NewPlayerPosition())
	_, before := e.Evaluate(p)

	tuned, values, after, improved := o.Optimize(p, before)
	if !improved {
		t.Fatal("optimizer reported no improvement")
	}
	if after <= before {
		t.Fatalf("score %v not better than %v", after, before)
	}
	if after != 0 {
		t.Errorf("score = %v, want 0 (tuned %s)", after, tuned)
	}
	if len(values) != 1 || values[0] != 7 {
		t.Errorf("constant values = %v, want [7]", values)
	}
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	e := targetEvaluator{target: 7}
	o := New(DefaultConfig(), e, rand.New(rand.NewSource(1)))

	p := dsl.NewPlus(dsl.NewConstant(3), dsl.NewConstant(1))
	before := p.String()
	_, score := e.Evaluate(p)

	o.Optimize(p, score)
	if p.String() != before {
		t.Errorf("input changed to %q", p)
	}
}

func TestOptimizeSkipsArrayIndexConstants(t *testing.T) {
	e := targetEvaluator{target: 7}
	o := New(DefaultConfig(), e, rand.New(rand.NewSource(1)))

	// The only constant is an array index; there is nothing to tune.
	p := dsl.NewReturnAction(dsl.NewVarFromArray("actions", dsl.NewConstant(0)))
	_, score := e.Evaluate(p)

	tuned, values, after, improved := o.Optimize(p, score)
	if improved {
		t.Error("index-only program reported improvement")
	}
	if after != score {
		t.Errorf("score changed from %v to %v", score, after)
	}
	if len(values) != 0 {
		t.Errorf("constant values = %v, want none", values)
	}
	if tuned.String() != p.String() {
		t.Errorf("program changed to %q", tuned)
	}
}

func TestNewSeedsNilRng(t *testing.T) {
	e := targetEvaluator{target: 7}
	o := New(DefaultConfig(), e, nil)

	p := dsl.NewPlus(dsl.NewConstant(3), dsl.NewPlayerPosition())
	_, before := e.Evaluate(p)

	_, values, after, improved := o.Optimize(p, before)
	if !improved || after != 0 {
		t.Fatalf("score = %v improved = %v, want 0 and true", after, improved)
	}
	if len(values) != 1 || values[0] != 7 {
		t.Errorf("constant values = %v, want [7]", values)
	}
}

func TestOptimizeTunesMultipleConstants(t *testing.T) {
	e := targetEvaluator{target: 10}
	o := New(DefaultConfig(), e, rand.New(rand.NewSource(1)))

	p := dsl.NewPlus(dsl.NewConstant(2), dsl.NewConstant(3))
	_, before := e.Evaluate(p)

	tuned, values, after, improved := o.Optimize(p, before)
	if !improved {
		t.Fatal("optimizer reported no improvement")
	}
	if after != 0 {
		t.Errorf("score = %v, want 0 (tuned %s, values %v)", after, tuned, values)
	}
	if len(values) != 2 {
		t.Fatalf("constant values = %v, want two entries", values)
	}
	if values[0]+values[1] != 10 {
		t.Errorf("tuned constants sum to %v, want 10", values[0]+values[1])
	}
}

package bank

import (
	"testing"

	"github.com/catchsynth/catchsynth/dsl"
)

func toyGrammar(constants ...float64) *dsl.Grammar {
	return &dsl.Grammar{
		Arrays:       []string{"actions"},
		ArrayIndexes: []int{0, 1},
		Constants:    constants,
	}
}

func renderings(nodes []dsl.Node) map[string]bool {
	out := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		out[n.String()] = true
	}
	return out
}

func TestSeedLevel(t *testing.T) {
	b := Populate(toyGrammar(0, 1), 1)

	got := renderings(kindsAt(b, 1, []dsl.Kind{
		dsl.KindConstant, dsl.KindPlayerPosition, dsl.KindFallingFruitPosition,
	}))
	for _, want := range []string{"0", "1", "PlayerPosition", "FallingFruitPosition"} {
		if !got[want] {
			t.Errorf("seed level missing %q (have %v)", want, got)
		}
	}
	if b.Count() != 4 {
		t.Errorf("seed count = %d, want 4", b.Count())
	}
	if b.MaxFinalizedCost() != 1 {
		t.Errorf("finalized = %d, want 1", b.MaxFinalizedCost())
	}
}

func TestVarFromArrayCost(t *testing.T) {
	b := Populate(toyGrammar(0, 1), 2)

	got := renderings(b.Programs(2, dsl.KindVarFromArray))
	for _, want := range []string{"actions[0]", "actions[1]"} {
		if !got[want] {
			t.Errorf("cost 2 missing %q", want)
		}
	}
	if len(got) != 2 {
		t.Errorf("cost 2 array reads = %v, want exactly 2", got)
	}
}

func TestZeroOperandPruning(t *testing.T) {
	b := Populate(toyGrammar(0, 1), 3)

	plus := renderings(b.Programs(3, dsl.KindPlus))
	if !plus["(1 + 1)"] {
		t.Errorf("Plus kept identical non-zero operands, missing (1 + 1): %v", plus)
	}
	for _, banned := range []string{"(0 + 1)", "(1 + 0)", "(0 + 0)", "(PlayerPosition + 0)"} {
		if plus[banned] {
			t.Errorf("Plus emitted zero-operand program %q", banned)
		}
	}

	minus := renderings(b.Programs(3, dsl.KindMinus))
	if !minus["(PlayerPosition - 1)"] {
		t.Errorf("Minus missing (PlayerPosition - 1): %v", minus)
	}
	for _, banned := range []string{"(1 - 1)", "(1 - 0)", "(0 - 1)", "(PlayerPosition - PlayerPosition)"} {
		if minus[banned] {
			t.Errorf("Minus emitted pruned program %q", banned)
		}
	}

	divide := renderings(b.Programs(3, dsl.KindDivide))
	for _, banned := range []string{"(1 // 1)", "(1 // 0)", "(0 // 1)"} {
		if divide[banned] {
			t.Errorf("Divide emitted pruned program %q", banned)
		}
	}
	if !divide["(PlayerPosition // 1)"] {
		t.Errorf("Divide missing (PlayerPosition // 1): %v", divide)
	}

	// Times rejects zero neither way: the constants still multiply.
	times := renderings(b.Programs(3, dsl.KindTimes))
	if !times["(0 * 1)"] && !times["(1 * 0)"] {
		t.Errorf("Times lost zero pairings entirely: %v", times)
	}
}

func TestTimesCommutativeDedup(t *testing.T) {
	b := Populate(toyGrammar(2, 3), 3)

	times := renderings(b.Programs(3, dsl.KindTimes))
	if times["(2 * 3)"] == times["(3 * 2)"] {
		t.Errorf("expected exactly one orientation of 2*3, got %v", times)
	}
	if !times["(2 * 2)"] {
		t.Errorf("Times missing square (2 * 2): %v", times)
	}

	// 4 operands at cost 1 -> n(n+1)/2 unordered pairs.
	if len(times) != 10 {
		t.Errorf("cost 3 Times count = %d, want 10: %v", len(times), times)
	}
}

func TestComparisonPruning(t *testing.T) {
	b := Populate(toyGrammar(0, 1), 3)

	lt := renderings(b.Programs(3, dsl.KindLessThan))
	if !lt["PlayerPosition < FallingFruitPosition"] {
		t.Errorf("LessThan missing the position comparison: %v", lt)
	}
	for _, banned := range []string{"1 < 1", "PlayerPosition < PlayerPosition"} {
		if lt[banned] {
			t.Errorf("LessThan emitted degenerate %q", banned)
		}
	}

	// comparison operands at cost 1: PlayerPosition, FallingFruitPosition, 0, 1
	// -> 4*4 ordered pairs minus 4 identical ones.
	if len(lt) != 12 {
		t.Errorf("cost 3 LessThan count = %d, want 12", len(lt))
	}
}

func TestReturnActionGrowth(t *testing.T) {
	b := Populate(toyGrammar(0, 1), 3)

	got := renderings(b.Programs(3, dsl.KindReturnAction))
	for _, want := range []string{"return actions[0]", "return actions[1]"} {
		if !got[want] {
			t.Errorf("cost 3 missing %q", want)
		}
	}
	if len(got) != 2 {
		t.Errorf("cost 3 returns = %v, want exactly 2", got)
	}
}

func TestStatementAndStrategyGrowth(t *testing.T) {
	g := &dsl.Grammar{
		Arrays:       []string{"actions"},
		ArrayIndexes: []int{0},
		Constants:    []float64{1},
	}
	b := Populate(g, 8)

	// Smallest IT: condition cost 3 + body cost 3 + 1.
	its := renderings(b.Programs(7, dsl.KindIT))
	want := "if PlayerPosition < FallingFruitPosition:\n\treturn actions[0]"
	if !its[want] {
		t.Errorf("cost 7 IT missing %q", want)
	}

	// Smallest Strategy: that IT with a nil continuation.
	strats := renderings(b.Programs(8, dsl.KindStrategy))
	if !strats[want+"\n"] {
		t.Errorf("cost 8 Strategy missing open-ended chain %q", want+"\n")
	}

	// Every banked program satisfies the size invariant at its level.
	for _, cost := range b.Costs() {
		for _, nodes := range b.Level(cost) {
			for _, n := range nodes {
				if n.Size() != cost {
					t.Fatalf("banked %q has size %d at level %d", n, n.Size(), cost)
				}
				if err := dsl.CheckCorrectSize(n); err != nil {
					t.Fatalf("banked %q: %v", n, err)
				}
			}
		}
	}
}

func TestAddDeduplicatesByRendering(t *testing.T) {
	b := New()
	if !b.Add(1, dsl.NewConstant(1)) {
		t.Fatal("first add rejected")
	}
	if b.Add(1, dsl.NewConstant(1)) {
		t.Error("duplicate rendering accepted")
	}
	if b.Count() != 1 {
		t.Errorf("count = %d, want 1", b.Count())
	}
}

func TestAddToFinalizedLevelPanics(t *testing.T) {
	b := Populate(toyGrammar(0, 1), 2)

	defer func() {
		if recover() == nil {
			t.Error("expected panic writing to a finalized level")
		}
	}()
	b.Add(2, dsl.NewConstant(99))
}

package anneal

import (
	"math/rand"
	"testing"

	"github.com/catchsynth/catchsynth/dsl"
)

func testGrammar() *dsl.Grammar {
	return dsl.CatcherGrammar(3, 8, 1)
}

// nodeDepth is the longest root-to-leaf path, counting nodes.
func nodeDepth(n dsl.Node) int {
	if n == nil {
		return 0
	}
	max := 0
	for _, kid := range n.Children() {
		if d := nodeDepth(kid); d > max {
			max = d
		}
	}
	return 1 + max
}

func TestGenerateProducesValidPrograms(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := testGrammar()

	roots := make(map[dsl.Kind]bool)
	for _, k := range g.RootKinds() {
		roots[k] = true
	}

	for i := 0; i < 500; i++ {
		p := Generate(rng, g, 4, 50)
		if !roots[p.Kind()] {
			t.Fatalf("generated root %s is not a root production", p.Kind())
		}
		if err := dsl.CheckCorrectSize(p); err != nil {
			t.Fatalf("size invariant: %v", err)
		}
		if err := conformanceError(p); err != nil {
			t.Fatalf("grammar conformance: %v", err)
		}
	}
}

func TestGenerateDepthBound(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := testGrammar()

	// Once the depth bound trips, a slot may still need a short mandatory
	// chain to terminate (statement -> condition/return -> array read ->
	// index), so the deepest leaf sits at most 4 levels past the bound.
	const maxDepth = 3
	for i := 0; i < 500; i++ {
		p := Generate(rng, g, maxDepth, 200)
		if d := nodeDepth(p); d > maxDepth+4 {
			t.Fatalf("generated depth %d exceeds bound %d+4:\n%s", d, maxDepth, p)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g := testGrammar()

	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		pa := Generate(a, g, 4, 50)
		pb := Generate(b, g, 4, 50)
		if pa.String() != pb.String() {
			t.Fatalf("generation %d diverged:\n%s\nvs\n%s", i, pa, pb)
		}
	}
}

func TestTerminalKindPrefersLeaves(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// A slot that offers an empty option must use it at the bound.
	for i := 0; i < 50; i++ {
		k := terminalKind(rng, dsl.ChildKinds(dsl.KindStrategy, 1))
		if k != dsl.KindNone {
			t.Fatalf("strategy continuation at the bound picked %s, want None", k)
		}
	}

	// Comparison operands include value kinds; composites must not appear.
	for i := 0; i < 50; i++ {
		k := terminalKind(rng, dsl.ChildKinds(dsl.KindLessThan, 0))
		if dsl.ArityOf(k) != 0 && !dsl.IsValueKind(k) {
			t.Fatalf("comparison operand at the bound picked composite %s", k)
		}
	}
}

// Package anneal implements the simulated-annealing strategy search:
// random program generation bounded by depth and size, subtree mutation by
// preorder index, and the time-boxed restart/cooling driver.
package anneal

import (
	"fmt"
	"math/rand"

	"github.com/catchsynth/catchsynth/dsl"
)

// Generate builds a random program from the grammar's root productions,
// completing every open child slot. maxDepth is a hard recursion bound;
// maxSize is a soft bound: it gates the decision to recurse, so the final
// terminal drawn after the bound trips may overshoot it slightly.
// Tightening that would change which programs mutation can reach.
func Generate(rng *rand.Rand, g *dsl.Grammar, maxDepth, maxSize int) dsl.Node {
	roots := g.RootKinds()
	p := instantiate(rng, g, roots[rng.Intn(len(roots))], dsl.KindNone)
	complete(rng, g, p, 0, maxDepth, maxSize)
	if err := dsl.CheckCorrectSize(p); err != nil {
		// Construction maintains sizes incrementally; a violation here is
		// an internal defect, not a recoverable state.
		panic(err)
	}
	return p
}

// instantiate creates a node of kind k. Value kinds draw their payloads
// from the grammar's terminal sets and come back complete; composite kinds
// come back with empty child slots for complete to fill. parent selects the
// constant pool: an index slot draws from ArrayIndexes, everywhere else
// from Constants.
func instantiate(rng *rand.Rand, g *dsl.Grammar, k dsl.Kind, parent dsl.Kind) dsl.Node {
	switch k {
	case dsl.KindConstant:
		if parent == dsl.KindVarFromArray {
			return dsl.NewConstant(float64(g.ArrayIndexes[rng.Intn(len(g.ArrayIndexes))]))
		}
		return dsl.NewConstant(g.Constants[rng.Intn(len(g.Constants))])
	case dsl.KindVarScalar:
		return dsl.NewVarScalar(g.Scalars[rng.Intn(len(g.Scalars))])
	case dsl.KindVarFromArray:
		name := g.Arrays[rng.Intn(len(g.Arrays))]
		idx := dsl.NewConstant(float64(g.ArrayIndexes[rng.Intn(len(g.ArrayIndexes))]))
		return dsl.NewVarFromArray(name, idx)
	default:
		return dsl.New(k)
	}
}

// complete fills every open child slot of p. Value-kind nodes arrive
// already complete, so only composites recurse.
func complete(rng *rand.Rand, g *dsl.Grammar, p dsl.Node, depth, maxDepth, maxSize int) {
	if p == nil || dsl.IsValueKind(p.Kind()) {
		return
	}
	for i := len(p.Children()); i < p.Arity(); i++ {
		allowed := dsl.ChildKinds(p.Kind(), i)

		var k dsl.Kind
		if depth >= maxDepth || p.Size() >= maxSize {
			k = terminalKind(rng, allowed)
		} else {
			k = allowed[rng.Intn(len(allowed))]
		}

		if k == dsl.KindNone {
			p.AddChild(nil)
			continue
		}
		child := instantiate(rng, g, k, p.Kind())
		complete(rng, g, child, depth+1, maxDepth, maxSize)
		p.AddChild(child)
	}
}

// terminalKind picks an allowed kind that terminates recursion as fast as
// the slot's grammar permits: an empty slot, a value kind, or a childless
// kind; failing that a single-child kind; failing that anything allowed.
func terminalKind(rng *rand.Rand, allowed []dsl.Kind) dsl.Kind {
	var terminals []dsl.Kind
	for _, k := range allowed {
		if k == dsl.KindNone || dsl.IsValueKind(k) || dsl.ArityOf(k) == 0 {
			terminals = append(terminals, k)
		}
	}
	if len(terminals) == 0 {
		for _, k := range allowed {
			if dsl.ArityOf(k) == 1 {
				terminals = append(terminals, k)
			}
		}
	}
	if len(terminals) == 0 {
		terminals = allowed
	}
	return terminals[rng.Intn(len(terminals))]
}

// conformanceError walks a tree and reports the first grammar violation:
// a child whose kind is not in its parent slot's allow-list. Generated and
// mutated trees are expected to pass; the check exists for tests and for
// asserting external optimizer results.
func conformanceError(n dsl.Node) error {
	if n == nil {
		return nil
	}
	for i, kid := range n.Children() {
		kk := dsl.KindNone
		if kid != nil {
			kk = kid.Kind()
		}
		ok := false
		for _, allowed := range dsl.ChildKinds(n.Kind(), i) {
			if allowed == kk {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("anneal: %s slot %d holds invalid %s", n.Kind(), i, kk)
		}
		if err := conformanceError(kid); err != nil {
			return err
		}
	}
	return nil
}

package anneal

import (
	"math/rand"

	"github.com/catchsynth/catchsynth/dsl"
)

// Mutate returns a mutated deep copy of p; the input tree is never
// touched, so the caller's reference stays valid for rollback.
//
// A node index is drawn uniformly from [0, size]. Index 0 regenerates the
// whole program from the root productions. Any other index addresses one
// position in a fixed preorder walk (parent before children, children in
// declaration order); the addressed slot is replaced by a fresh subtree of
// a kind valid for that slot, completed under a budget of maxSize minus the
// parent's current size. Empty slots count as leaf positions, so a missing
// Strategy continuation can be grown by mutation. An index past the last
// position mutates nothing and returns the plain clone.
//
// Ancestor sizes are recomputed bottom-up on the way out; the whole-tree
// invariant is re-asserted before the result is returned. A failed check is
// an internal defect: the corrupted tree is withheld and the error returned
// so the caller aborts the iteration.
func Mutate(rng *rand.Rand, g *dsl.Grammar, p dsl.Node, maxDepth, maxSize int) (dsl.Node, error) {
	index := rng.Intn(p.Size() + 1)

	if index == 0 {
		return Generate(rng, g, maxDepth, maxSize), nil
	}

	q := p.Clone()
	visited := 0
	mutateInner(rng, g, q, index, &visited, maxDepth, maxSize)
	if err := dsl.CheckCorrectSize(q); err != nil {
		return nil, err
	}
	return q, nil
}

// mutateInner walks the tree in the same preorder used for indexing,
// counting visited positions (nil slots included) until the drawn index
// addresses a child slot of the current node.
func mutateInner(rng *rand.Rand, g *dsl.Grammar, p dsl.Node, index int, visited *int, maxDepth, maxSize int) bool {
	*visited++
	if p == nil {
		return false
	}

	for i := range p.Children() {
		if index == *visited {
			allowed := dsl.ChildKinds(p.Kind(), i)
			k := allowed[rng.Intn(len(allowed))]

			var child dsl.Node
			if k != dsl.KindNone {
				child = instantiate(rng, g, k, p.Kind())
				complete(rng, g, child, 0, maxDepth, maxSize-p.Size())
			}
			p.ReplaceChild(child, i)
			return true
		}

		if mutateInner(rng, g, p.Child(i), index, visited, maxDepth, maxSize) {
			dsl.RefreshSize(p)
			return true
		}
	}

	return false
}

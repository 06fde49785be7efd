// Package bank enumerates strategy programs bottom-up: a cost-indexed,
// append-only store of everything built so far, plus per-kind grow rules
// that combine strictly smaller entries into programs of an exact target
// cost.
package bank

import (
	"fmt"
	"sort"

	"github.com/catchsynth/catchsynth/dsl"
)

// Bank maps cost -> kind -> the ordered programs of exactly that cost.
// Levels are populated in increasing cost order and finalized once their
// grow pass is exhausted; a finalized level is never touched again, so
// concurrent readers (program completion during a restart) need no locking.
type Bank struct {
	levels    map[int]map[dsl.Kind][]dsl.Node
	seen      map[string]bool
	finalized int
}

func New() *Bank {
	return &Bank{
		levels: make(map[int]map[dsl.Kind][]dsl.Node),
		seen:   make(map[string]bool),
	}
}

// Level returns the kind map at the given cost, or nil when the level is
// absent. An absent level simply contributes zero programs to growth.
func (b *Bank) Level(cost int) map[dsl.Kind][]dsl.Node {
	return b.levels[cost]
}

// Programs returns the entries of one kind at one exact cost.
func (b *Bank) Programs(cost int, k dsl.Kind) []dsl.Node {
	level := b.levels[cost]
	if level == nil {
		return nil
	}
	return level[k]
}

// Add inserts a program under its own kind at the given cost, skipping
// duplicates by canonical rendering. Writing to an already finalized level
// is a programming error.
func (b *Bank) Add(cost int, n dsl.Node) bool {
	if cost <= b.finalized {
		panic(fmt.Sprintf("bank: level %d is finalized", cost))
	}
	key := n.String()
	if b.seen[key] {
		return false
	}
	b.seen[key] = true

	level := b.levels[cost]
	if level == nil {
		level = make(map[dsl.Kind][]dsl.Node)
		b.levels[cost] = level
	}
	level[n.Kind()] = append(level[n.Kind()], n)
	return true
}

// MaxFinalizedCost is the highest cost level whose growth is complete.
func (b *Bank) MaxFinalizedCost() int { return b.finalized }

// Count returns the total number of stored programs.
func (b *Bank) Count() int {
	total := 0
	for _, level := range b.levels {
		for _, nodes := range level {
			total += len(nodes)
		}
	}
	return total
}

// Costs returns the populated cost levels in ascending order.
func (b *Bank) Costs() []int {
	out := make([]int, 0, len(b.levels))
	for c := range b.levels {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Populate builds the bank for a grammar up to maxCost inclusive: terminal
// seeds at cost 1, then one full grow pass per kind per level. Each level
// is finalized only after every grow for it has been exhausted, since the
// next level depends on complete lower-level results.
func Populate(g *dsl.Grammar, maxCost int) *Bank {
	b := New()

	for _, v := range g.Constants {
		b.Add(1, dsl.NewConstant(v))
	}
	b.Add(1, dsl.NewPlayerPosition())
	b.Add(1, dsl.NewFallingFruitPosition())
	for _, name := range g.Scalars {
		b.Add(1, dsl.NewVarScalar(name))
	}
	b.finalized = 1

	for cost := 2; cost <= maxCost; cost++ {
		for _, k := range grownKinds {
			for _, p := range Grow(g, b, k, cost) {
				b.Add(cost, p)
			}
		}
		b.finalized = cost
	}

	return b
}

package bank

import "github.com/catchsynth/catchsynth/dsl"

// grownKinds are the composite productions, in dependency-friendly order.
var grownKinds = []dsl.Kind{
	dsl.KindVarFromArray,
	dsl.KindPlus, dsl.KindMinus, dsl.KindTimes, dsl.KindDivide,
	dsl.KindLessThan, dsl.KindGreaterThan, dsl.KindEqualTo,
	dsl.KindReturnAction,
	dsl.KindIT, dsl.KindITE,
	dsl.KindStrategy,
}

// Grow produces every well-typed program of kind k costing exactly cost,
// built from strictly smaller entries already in the bank. Sub-costs
// partition cost-1 (the 1 pays for the composite node itself); a missing
// lower level contributes nothing. Child slots take deep copies of the
// banked entries, keeping every banked program an exclusively-owned tree.
func Grow(g *dsl.Grammar, b *Bank, k dsl.Kind, cost int) []dsl.Node {
	switch k {
	case dsl.KindVarFromArray:
		return growVarFromArray(g, cost)
	case dsl.KindPlus:
		return growBinary(b, cost, k, func(l, r dsl.Node) dsl.Node { return dsl.NewPlus(l, r) })
	case dsl.KindMinus:
		return growBinary(b, cost, k, func(l, r dsl.Node) dsl.Node { return dsl.NewMinus(l, r) })
	case dsl.KindTimes:
		return growTimes(b, cost)
	case dsl.KindDivide:
		return growBinary(b, cost, k, func(l, r dsl.Node) dsl.Node { return dsl.NewDivide(l, r) })
	case dsl.KindLessThan:
		return growBinary(b, cost, k, func(l, r dsl.Node) dsl.Node { return dsl.NewLessThan(l, r) })
	case dsl.KindGreaterThan:
		return growBinary(b, cost, k, func(l, r dsl.Node) dsl.Node { return dsl.NewGreaterThan(l, r) })
	case dsl.KindEqualTo:
		return growBinary(b, cost, k, func(l, r dsl.Node) dsl.Node { return dsl.NewEqualTo(l, r) })
	case dsl.KindReturnAction:
		return growReturnAction(b, cost)
	case dsl.KindIT:
		return growIT(b, cost)
	case dsl.KindITE:
		return growITE(b, cost)
	case dsl.KindStrategy:
		return growStrategy(b, cost)
	default:
		return nil
	}
}

// growVarFromArray enumerates every array/index pair. The node costs 1
// plus its constant index, so the whole read always costs exactly 2.
func growVarFromArray(g *dsl.Grammar, cost int) []dsl.Node {
	if cost != 2 {
		return nil
	}
	var out []dsl.Node
	for _, name := range g.Arrays {
		for _, idx := range g.ArrayIndexes {
			out = append(out, dsl.NewVarFromArray(name, dsl.NewConstant(float64(idx))))
		}
	}
	return out
}

// kindsAt yields the bank entries at one cost whose kind is in the slot's
// allow-list.
func kindsAt(b *Bank, cost int, allowed []dsl.Kind) []dsl.Node {
	level := b.Level(cost)
	if level == nil {
		return nil
	}
	var out []dsl.Node
	for _, k := range allowed {
		out = append(out, level[k]...)
	}
	return out
}

// growBinary enumerates operand pairs across all partitions of cost-1,
// applying the shared pruning rules: comparisons and Minus/Divide reject
// identical-rendering pairs (degenerate always-true/false or x-x, x//x);
// Plus/Minus/Divide reject a literal-zero operand.
func growBinary(b *Bank, cost int, kind dsl.Kind, build func(l, r dsl.Node) dsl.Node) []dsl.Node {
	allowed := dsl.ChildKinds(kind, 0)
	rejectSame := kind != dsl.KindPlus
	rejectZero := kind == dsl.KindPlus || kind == dsl.KindMinus || kind == dsl.KindDivide

	var out []dsl.Node
	for leftCost := 1; leftCost <= cost-2; leftCost++ {
		rightCost := cost - 1 - leftCost
		for _, left := range kindsAt(b, leftCost, allowed) {
			ls := left.String()
			if rejectZero && ls == "0" {
				continue
			}
			for _, right := range kindsAt(b, rightCost, allowed) {
				rs := right.String()
				if rejectZero && rs == "0" {
					continue
				}
				if rejectSame && ls == rs {
					continue
				}
				out = append(out, build(left.Clone(), right.Clone()))
			}
		}
	}
	return out
}

// growTimes is commutative-aware: within this call, a pairing is skipped
// when its swapped counterpart has already been emitted. The suppression is
// intentionally local to one invocation; it does not chase permutations
// across calls or deeper nestings.
func growTimes(b *Bank, cost int) []dsl.Node {
	allowed := dsl.ChildKinds(dsl.KindTimes, 0)
	emitted := make(map[string]bool)

	var out []dsl.Node
	for leftCost := 1; leftCost <= cost-2; leftCost++ {
		rightCost := cost - 1 - leftCost
		for _, left := range kindsAt(b, leftCost, allowed) {
			for _, right := range kindsAt(b, rightCost, allowed) {
				swapped := dsl.NewTimes(right.Clone(), left.Clone()).String()
				if emitted[swapped] {
					continue
				}
				times := dsl.NewTimes(left.Clone(), right.Clone())
				emitted[times.String()] = true
				out = append(out, times)
			}
		}
	}
	return out
}

func growReturnAction(b *Bank, cost int) []dsl.Node {
	var out []dsl.Node
	for _, target := range b.Programs(cost-1, dsl.KindVarFromArray) {
		out = append(out, dsl.NewReturnAction(target.Clone()))
	}
	return out
}

func growIT(b *Bank, cost int) []dsl.Node {
	condKinds := dsl.ChildKinds(dsl.KindIT, 0)
	bodyKinds := dsl.ChildKinds(dsl.KindIT, 1)

	var out []dsl.Node
	for condCost := 1; condCost <= cost-2; condCost++ {
		bodyCost := cost - 1 - condCost
		for _, cond := range kindsAt(b, condCost, condKinds) {
			for _, body := range kindsAt(b, bodyCost, bodyKinds) {
				out = append(out, dsl.NewIT(cond.Clone(), body.Clone()))
			}
		}
	}
	return out
}

func growITE(b *Bank, cost int) []dsl.Node {
	condKinds := dsl.ChildKinds(dsl.KindITE, 0)
	bodyKinds := dsl.ChildKinds(dsl.KindITE, 1)

	var out []dsl.Node
	for condCost := 1; condCost <= cost-3; condCost++ {
		for bodyCost := 1; bodyCost <= cost-2-condCost; bodyCost++ {
			elseCost := cost - 1 - condCost - bodyCost
			for _, cond := range kindsAt(b, condCost, condKinds) {
				for _, body := range kindsAt(b, bodyCost, bodyKinds) {
					for _, elseBody := range kindsAt(b, elseCost, bodyKinds) {
						out = append(out, dsl.NewITE(cond.Clone(), body.Clone(), elseBody.Clone()))
					}
				}
			}
		}
	}
	return out
}

// growStrategy chains a statement with an optional continuation; a zero
// continuation budget produces the chain terminator (nil next).
func growStrategy(b *Bank, cost int) []dsl.Node {
	stmtKinds := []dsl.Kind{dsl.KindIT, dsl.KindITE}
	nextKinds := []dsl.Kind{dsl.KindStrategy, dsl.KindReturnAction}

	var out []dsl.Node
	for stmtCost := 1; stmtCost <= cost-1; stmtCost++ {
		nextCost := cost - 1 - stmtCost
		for _, stmt := range kindsAt(b, stmtCost, stmtKinds) {
			if nextCost == 0 {
				out = append(out, dsl.NewStrategy(stmt.Clone(), nil))
				continue
			}
			for _, next := range kindsAt(b, nextCost, nextKinds) {
				out = append(out, dsl.NewStrategy(stmt.Clone(), next.Clone()))
			}
		}
	}
	return out
}

package dsl

import "fmt"

// The production rules are fixed: which kind may occupy which child slot
// never changes between runs. What a search run configures (Grammar) is the
// terminal value sets: permissible arrays, array indices, scalar names and
// constants.

var arithOperands = []Kind{
	KindVarScalar, KindPlayerPosition, KindFallingFruitPosition,
	KindConstant, KindTimes, KindMinus, KindPlus, KindDivide,
}

var comparisonOperands = []Kind{
	KindPlayerPosition, KindFallingFruitPosition,
	KindPlus, KindMinus, KindDivide, KindTimes, KindConstant,
}

var conditions = []Kind{KindLessThan, KindGreaterThan, KindEqualTo}

var childKindTable = map[Kind][][]Kind{
	KindVarFromArray: {{KindConstant}},

	KindPlus:   {arithOperands, arithOperands},
	KindMinus:  {arithOperands, arithOperands},
	KindTimes:  {arithOperands, arithOperands},
	KindDivide: {arithOperands, arithOperands},

	KindLessThan:    {comparisonOperands, comparisonOperands},
	KindGreaterThan: {comparisonOperands, comparisonOperands},
	KindEqualTo:     {comparisonOperands, comparisonOperands},

	KindReturnAction: {{KindVarFromArray}},
	KindIT:           {conditions, {KindReturnAction}},
	KindITE:          {conditions, {KindReturnAction}, {KindReturnAction}},
	KindStrategy:     {{KindIT, KindITE}, {KindStrategy, KindReturnAction, KindNone}},
}

// ChildKinds returns the allow-list of kinds valid in the given child slot
// of kind k. The returned slice is a copy.
func ChildKinds(k Kind, slot int) []Kind {
	rows, ok := childKindTable[k]
	if !ok || slot >= len(rows) {
		return nil
	}
	out := make([]Kind, len(rows[slot]))
	copy(out, rows[slot])
	return out
}

func slotAllows(k Kind, slot int, child Kind) bool {
	rows, ok := childKindTable[k]
	if !ok || slot >= len(rows) {
		return false
	}
	for _, allowed := range rows[slot] {
		if allowed == child {
			return true
		}
	}
	return false
}

// ArityOf returns the fixed child-slot count of a kind.
func ArityOf(k Kind) int {
	return len(childKindTable[k])
}

// IsValueKind reports whether nodes of kind k are built directly from the
// grammar's terminal value sets (no recursive completion required).
func IsValueKind(k Kind) bool {
	return k == KindConstant || k == KindVarScalar || k == KindVarFromArray
}

// New returns an empty node of the given composite kind, ready for
// AddChild. Value kinds carry payloads and must be built through their own
// constructors.
func New(k Kind) Node {
	switch k {
	case KindPlayerPosition:
		return NewPlayerPosition()
	case KindFallingFruitPosition:
		return NewFallingFruitPosition()
	case KindPlus:
		return &Plus{base: newBase(KindPlus, 2)}
	case KindMinus:
		return &Minus{base: newBase(KindMinus, 2)}
	case KindTimes:
		return &Times{base: newBase(KindTimes, 2)}
	case KindDivide:
		return &Divide{base: newBase(KindDivide, 2)}
	case KindLessThan:
		return &LessThan{base: newBase(KindLessThan, 2)}
	case KindGreaterThan:
		return &GreaterThan{base: newBase(KindGreaterThan, 2)}
	case KindEqualTo:
		return &EqualTo{base: newBase(KindEqualTo, 2)}
	case KindReturnAction:
		return &ReturnAction{base: newBase(KindReturnAction, 1)}
	case KindIT:
		return &IT{base: newBase(KindIT, 2)}
	case KindITE:
		return &ITE{base: newBase(KindITE, 3)}
	case KindStrategy:
		return &Strategy{base: newBase(KindStrategy, 2)}
	default:
		panic(fmt.Sprintf("dsl: New: %s is not an empty-constructible kind", k))
	}
}

// DefaultRoots are the productions a whole program may start from: a
// Strategy chain or a degenerate single statement.
var DefaultRoots = []Kind{KindStrategy, KindIT, KindITE, KindReturnAction}

// Grammar is the per-run configuration of the terminal value sets. It is
// immutable once handed to generation/enumeration/mutation: calls receive
// it explicitly rather than reading shared mutable metadata.
type Grammar struct {
	Arrays       []string
	ArrayIndexes []int
	Scalars      []string
	Constants    []float64

	// Roots overrides DefaultRoots when non-empty.
	Roots []Kind
}

func (g *Grammar) RootKinds() []Kind {
	if len(g.Roots) > 0 {
		return g.Roots
	}
	return DefaultRoots
}

// CatcherGrammar is the standard configuration for the Catcher game:
// the action array with one index per discrete action, the paddle width
// scalar, and a coarse constant set spanning the screen.
func CatcherGrammar(actionCount int, maxConstant float64, constantStep float64) *Grammar {
	g := &Grammar{
		Arrays:  []string{"actions"},
		Scalars: []string{"paddle_width"},
	}
	for i := 0; i < actionCount; i++ {
		g.ArrayIndexes = append(g.ArrayIndexes, i)
	}
	for c := 0.0; c <= maxConstant; c += constantStep {
		g.Constants = append(g.Constants, c)
	}
	return g
}

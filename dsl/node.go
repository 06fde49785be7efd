// Package dsl defines the typed abstract-syntax tree for the Catcher
// strategy language.
//
// Programs are never parsed from text; they are only ever constructed,
// cloned and mutated as trees. A node's canonical rendering (String) doubles
// as its structural-equality key: two nodes represent the same program iff
// their renderings are byte-equal.
package dsl

import (
	"fmt"
	"strings"
)

// Kind identifies a grammar production. Every concrete node type maps to
// exactly one Kind.
type Kind int

const (
	// KindNone marks an empty grammar slot (a Strategy with no
	// continuation). It is valid in allow-lists but has no node type.
	KindNone Kind = iota

	KindConstant
	KindPlayerPosition
	KindFallingFruitPosition
	KindVarScalar
	KindVarFromArray

	KindPlus
	KindMinus
	KindTimes
	KindDivide

	KindLessThan
	KindGreaterThan
	KindEqualTo

	KindReturnAction
	KindIT
	KindITE
	KindStrategy
)

var kindNames = map[Kind]string{
	KindNone:                 "None",
	KindConstant:             "Constant",
	KindPlayerPosition:       "PlayerPosition",
	KindFallingFruitPosition: "FallingFruitPosition",
	KindVarScalar:            "VarScalar",
	KindVarFromArray:         "VarFromArray",
	KindPlus:                 "Plus",
	KindMinus:                "Minus",
	KindTimes:                "Times",
	KindDivide:               "Divide",
	KindLessThan:             "LessThan",
	KindGreaterThan:          "GreaterThan",
	KindEqualTo:              "EqualTo",
	KindReturnAction:         "ReturnAction",
	KindIT:                   "IT",
	KindITE:                  "ITE",
	KindStrategy:             "Strategy",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is a fragment of a strategy program.
//
// Invariants for every node:
//   - Size() == 1 + sum of the sizes of all non-nil children
//   - the number of children never exceeds Arity()
//   - each child's Kind is in the allow-list ChildKinds(Kind(), slot)
//
// Parents exclusively own their children: trees, never DAGs. Clone always
// performs a deep copy so a mutated clone leaves the source tree valid.
type Node interface {
	Kind() Kind
	Size() int
	Arity() int
	Child(i int) Node
	Children() []Node
	AddChild(n Node)
	ReplaceChild(n Node, i int)
	String() string
	Interpret(env *Env) (Value, error)
	Clone() Node
}

// base carries the size/children bookkeeping shared by every node type.
type base struct {
	kind  Kind
	size  int
	arity int
	kids  []Node
}

func newBase(kind Kind, arity int) base {
	return base{kind: kind, size: 1, arity: arity}
}

func (b *base) Kind() Kind { return b.kind }
func (b *base) Size() int  { return b.size }
func (b *base) Arity() int { return b.arity }

func (b *base) Child(i int) Node { return b.kids[i] }

func (b *base) Children() []Node {
	out := make([]Node, len(b.kids))
	copy(out, b.kids)
	return out
}

// AddChild appends a child in the next open slot. Slot overflow and
// grammar-invalid child kinds are programming errors and panic immediately
// rather than producing a malformed tree.
func (b *base) AddChild(n Node) {
	slot := len(b.kids)
	if slot >= b.arity {
		panic(fmt.Sprintf("dsl: %s cannot take child %d, arity is %d", b.kind, slot, b.arity))
	}
	if !slotAllows(b.kind, slot, kindOf(n)) {
		panic(fmt.Sprintf("dsl: %s slot %d does not accept %s", b.kind, slot, kindOf(n)))
	}
	b.kids = append(b.kids, n)
	if n != nil {
		b.size += n.Size()
	}
}

// ReplaceChild swaps slot i, adjusting size by the delta between old and
// new child. Ancestors above the receiver must be refreshed by the caller.
func (b *base) ReplaceChild(n Node, i int) {
	if !slotAllows(b.kind, i, kindOf(n)) {
		panic(fmt.Sprintf("dsl: %s slot %d does not accept %s", b.kind, i, kindOf(n)))
	}
	if old := b.kids[i]; old != nil {
		b.size -= old.Size()
	}
	if n != nil {
		b.size += n.Size()
	}
	b.kids[i] = n
}

func (b *base) setSize(s int) { b.size = s }

// cloneKidsInto deep-copies the receiver's children into dst, preserving
// nil slots.
func (b *base) cloneKidsInto(dst Node) {
	for _, kid := range b.kids {
		if kid == nil {
			dst.AddChild(nil)
			continue
		}
		dst.AddChild(kid.Clone())
	}
}

func kindOf(n Node) Kind {
	if n == nil {
		return KindNone
	}
	return n.Kind()
}

type sizeSetter interface {
	setSize(int)
}

// RefreshSize recomputes n's own size from its (assumed correct) children.
// Used when a mutation deep in the tree has already fixed the subtree and
// ancestors need their bookkeeping restored bottom-up.
func RefreshSize(n Node) {
	if n == nil {
		return
	}
	size := 1
	for _, kid := range n.Children() {
		if kid != nil {
			size += kid.Size()
		}
	}
	n.(sizeSetter).setSize(size)
}

// CheckCorrectSize verifies the whole-tree size invariant:
// size == 1 + sum of non-nil child sizes, for every node. Consumers must be
// able to assert this before using a tree for evaluation or growth.
func CheckCorrectSize(n Node) error {
	if n == nil {
		return nil
	}
	want := 1
	for _, kid := range n.Children() {
		if kid == nil {
			continue
		}
		if err := CheckCorrectSize(kid); err != nil {
			return err
		}
		want += kid.Size()
	}
	if n.Size() != want {
		return fmt.Errorf("dsl: %s has size %d, want %d in %q", n.Kind(), n.Size(), want, n.String())
	}
	return nil
}

// render writes the canonical rendering of n at the given indent depth.
// Only the statement nodes (IT/ITE) consume the indent; expression nodes
// render the same at any depth.
func render(sb *strings.Builder, n Node, indent int) {
	switch v := n.(type) {
	case *Constant:
		sb.WriteString(v.render())
	case *PlayerPosition, *FallingFruitPosition:
		sb.WriteString(n.Kind().String())
	case *VarScalar:
		sb.WriteString(v.Name)
	case *VarFromArray:
		sb.WriteString(v.Name)
		sb.WriteByte('[')
		render(sb, v.Index(), 0)
		sb.WriteByte(']')
	case *Plus:
		renderInfix(sb, v.Left(), "+", v.Right(), true)
	case *Minus:
		renderInfix(sb, v.Left(), "-", v.Right(), true)
	case *Times:
		renderInfix(sb, v.Left(), "*", v.Right(), true)
	case *Divide:
		renderInfix(sb, v.Left(), "//", v.Right(), true)
	case *LessThan:
		renderInfix(sb, v.Left(), "<", v.Right(), false)
	case *GreaterThan:
		renderInfix(sb, v.Left(), ">", v.Right(), false)
	case *EqualTo:
		renderInfix(sb, v.Left(), "==", v.Right(), false)
	case *ReturnAction:
		sb.WriteString("return ")
		render(sb, v.Target(), 0)
	case *IT:
		tabs := strings.Repeat("\t", indent)
		sb.WriteString(tabs)
		sb.WriteString("if ")
		render(sb, v.Condition(), 0)
		sb.WriteString(":\n")
		sb.WriteString(tabs)
		sb.WriteByte('\t')
		render(sb, v.Body(), 0)
	case *ITE:
		tabs := strings.Repeat("\t", indent)
		sb.WriteString(tabs)
		sb.WriteString("if ")
		render(sb, v.Condition(), 0)
		sb.WriteString(":\n")
		sb.WriteString(tabs)
		sb.WriteByte('\t')
		render(sb, v.Body(), 0)
		sb.WriteByte('\n')
		sb.WriteString(tabs)
		sb.WriteString("else:\n")
		sb.WriteString(tabs)
		sb.WriteByte('\t')
		render(sb, v.Else(), 0)
	case *Strategy:
		render(sb, v.Statement(), indent)
		sb.WriteByte('\n')
		if next := v.Next(); next != nil {
			render(sb, next, indent)
		}
	default:
		panic(fmt.Sprintf("dsl: render: unhandled node %T", n))
	}
}

func renderInfix(sb *strings.Builder, left Node, op string, right Node, parens bool) {
	if parens {
		sb.WriteByte('(')
	}
	render(sb, left, 0)
	sb.WriteByte(' ')
	sb.WriteString(op)
	sb.WriteByte(' ')
	render(sb, right, 0)
	if parens {
		sb.WriteByte(')')
	}
}

func renderNode(n Node) string {
	var sb strings.Builder
	render(&sb, n, 0)
	return sb.String()
}

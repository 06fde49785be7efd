package dsl

import (
	"fmt"
	"math"
)

// Plus is numeric addition.
type Plus struct {
	base
}

func NewPlus(left, right Node) *Plus {
	p := &Plus{base: newBase(KindPlus, 2)}
	p.AddChild(left)
	p.AddChild(right)
	return p
}

func (p *Plus) Left() Node  { return p.Child(0) }
func (p *Plus) Right() Node { return p.Child(1) }

func (p *Plus) String() string { return renderNode(p) }

func (p *Plus) Interpret(env *Env) (Value, error) {
	l, err := numOperand(p.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(p.Right(), env)
	if err != nil {
		return None, err
	}
	return NumberValue(l + r), nil
}

func (p *Plus) Clone() Node {
	out := &Plus{base: newBase(KindPlus, 2)}
	p.cloneKidsInto(out)
	return out
}

// Minus is numeric subtraction.
type Minus struct {
	base
}

func NewMinus(left, right Node) *Minus {
	m := &Minus{base: newBase(KindMinus, 2)}
	m.AddChild(left)
	m.AddChild(right)
	return m
}

func (m *Minus) Left() Node  { return m.Child(0) }
func (m *Minus) Right() Node { return m.Child(1) }

func (m *Minus) String() string { return renderNode(m) }

func (m *Minus) Interpret(env *Env) (Value, error) {
	l, err := numOperand(m.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(m.Right(), env)
	if err != nil {
		return None, err
	}
	return NumberValue(l - r), nil
}

func (m *Minus) Clone() Node {
	out := &Minus{base: newBase(KindMinus, 2)}
	m.cloneKidsInto(out)
	return out
}

// Times is numeric multiplication.
type Times struct {
	base
}

func NewTimes(left, right Node) *Times {
	t := &Times{base: newBase(KindTimes, 2)}
	t.AddChild(left)
	t.AddChild(right)
	return t
}

func (t *Times) Left() Node  { return t.Child(0) }
func (t *Times) Right() Node { return t.Child(1) }

func (t *Times) String() string { return renderNode(t) }

func (t *Times) Interpret(env *Env) (Value, error) {
	l, err := numOperand(t.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(t.Right(), env)
	if err != nil {
		return None, err
	}
	return NumberValue(l * r), nil
}

func (t *Times) Clone() Node {
	out := &Times{base: newBase(KindTimes, 2)}
	t.cloneKidsInto(out)
	return out
}

// Divide is floor division, rendered "//". Division by zero is an
// evaluation failure, reported as an ordinary error for the evaluator to
// turn into the failure sentinel.
type Divide struct {
	base
}

func NewDivide(left, right Node) *Divide {
	d := &Divide{base: newBase(KindDivide, 2)}
	d.AddChild(left)
	d.AddChild(right)
	return d
}

func (d *Divide) Left() Node  { return d.Child(0) }
func (d *Divide) Right() Node { return d.Child(1) }

func (d *Divide) String() string { return renderNode(d) }

func (d *Divide) Interpret(env *Env) (Value, error) {
	l, err := numOperand(d.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(d.Right(), env)
	if err != nil {
		return None, err
	}
	if r == 0 {
		return None, fmt.Errorf("dsl: division by zero in %q", d.String())
	}
	return NumberValue(math.Floor(l / r)), nil
}

func (d *Divide) Clone() Node {
	out := &Divide{base: newBase(KindDivide, 2)}
	d.cloneKidsInto(out)
	return out
}

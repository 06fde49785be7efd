package dsl

import (
	"fmt"
	"strconv"
)

// Constant is a numeric literal drawn from the grammar's constant set.
type Constant struct {
	base
	Value float64
}

func NewConstant(v float64) *Constant {
	return &Constant{base: newBase(KindConstant, 0), Value: v}
}

// SetValue overwrites the literal in place. Used by the constant optimizer,
// which owns a private clone of the tree it edits.
func (c *Constant) SetValue(v float64) { c.Value = v }

func (c *Constant) render() string {
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

func (c *Constant) String() string { return renderNode(c) }

func (c *Constant) Interpret(env *Env) (Value, error) {
	return NumberValue(c.Value), nil
}

func (c *Constant) Clone() Node {
	return NewConstant(c.Value)
}

// PlayerPosition reads the controlled paddle's x position from the
// environment state view.
type PlayerPosition struct {
	base
}

func NewPlayerPosition() *PlayerPosition {
	return &PlayerPosition{base: newBase(KindPlayerPosition, 0)}
}

func (p *PlayerPosition) String() string { return renderNode(p) }

func (p *PlayerPosition) Interpret(env *Env) (Value, error) {
	return NumberValue(env.stateReading("player_position")), nil
}

func (p *PlayerPosition) Clone() Node { return NewPlayerPosition() }

// FallingFruitPosition reads the falling fruit's x position from the
// environment state view.
type FallingFruitPosition struct {
	base
}

func NewFallingFruitPosition() *FallingFruitPosition {
	return &FallingFruitPosition{base: newBase(KindFallingFruitPosition, 0)}
}

func (f *FallingFruitPosition) String() string { return renderNode(f) }

func (f *FallingFruitPosition) Interpret(env *Env) (Value, error) {
	return NumberValue(env.stateReading("fruit_position")), nil
}

func (f *FallingFruitPosition) Clone() Node { return NewFallingFruitPosition() }

// VarScalar is a named scalar lookup, e.g. paddle_width.
type VarScalar struct {
	base
	Name string
}

func NewVarScalar(name string) *VarScalar {
	return &VarScalar{base: newBase(KindVarScalar, 0), Name: name}
}

func (v *VarScalar) String() string { return renderNode(v) }

func (v *VarScalar) Interpret(env *Env) (Value, error) {
	if env == nil || env.Scalars == nil {
		panic("dsl: interpret environment has no scalar view")
	}
	val, ok := env.Scalars[v.Name]
	if !ok {
		panic(fmt.Sprintf("dsl: interpret environment is missing scalar %q", v.Name))
	}
	return NumberValue(val), nil
}

func (v *VarScalar) Clone() Node { return NewVarScalar(v.Name) }

// VarFromArray is a named array lookup indexed by a Constant, e.g.
// actions[0]. Its only child is the index.
type VarFromArray struct {
	base
	Name string
}

func NewVarFromArray(name string, index *Constant) *VarFromArray {
	v := &VarFromArray{base: newBase(KindVarFromArray, 1), Name: name}
	v.AddChild(index)
	return v
}

func (v *VarFromArray) Index() Node { return v.Child(0) }

func (v *VarFromArray) String() string { return renderNode(v) }

func (v *VarFromArray) Interpret(env *Env) (Value, error) {
	arr := env.arrayValues(v.Name)
	idxVal, err := numOperand(v.Index(), env)
	if err != nil {
		return None, err
	}
	idx := int(idxVal)
	if idx < 0 || idx >= len(arr) {
		return None, fmt.Errorf("dsl: %s index %d out of range [0,%d)", v.Name, idx, len(arr))
	}
	return ActionValue(arr[idx]), nil
}

func (v *VarFromArray) Clone() Node {
	out := &VarFromArray{base: newBase(KindVarFromArray, 1), Name: v.Name}
	v.cloneKidsInto(out)
	return out
}

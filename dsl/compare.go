package dsl

// LessThan compares two numeric operands.
type LessThan struct {
	base
}

func NewLessThan(left, right Node) *LessThan {
	c := &LessThan{base: newBase(KindLessThan, 2)}
	c.AddChild(left)
	c.AddChild(right)
	return c
}

func (c *LessThan) Left() Node  { return c.Child(0) }
func (c *LessThan) Right() Node { return c.Child(1) }

func (c *LessThan) String() string { return renderNode(c) }

func (c *LessThan) Interpret(env *Env) (Value, error) {
	l, err := numOperand(c.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(c.Right(), env)
	if err != nil {
		return None, err
	}
	return BoolValue(l < r), nil
}

func (c *LessThan) Clone() Node {
	out := &LessThan{base: newBase(KindLessThan, 2)}
	c.cloneKidsInto(out)
	return out
}

// GreaterThan compares two numeric operands.
type GreaterThan struct {
	base
}

func NewGreaterThan(left, right Node) *GreaterThan {
	c := &GreaterThan{base: newBase(KindGreaterThan, 2)}
	c.AddChild(left)
	c.AddChild(right)
	return c
}

func (c *GreaterThan) Left() Node  { return c.Child(0) }
func (c *GreaterThan) Right() Node { return c.Child(1) }

func (c *GreaterThan) String() string { return renderNode(c) }

func (c *GreaterThan) Interpret(env *Env) (Value, error) {
	l, err := numOperand(c.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(c.Right(), env)
	if err != nil {
		return None, err
	}
	return BoolValue(l > r), nil
}

func (c *GreaterThan) Clone() Node {
	out := &GreaterThan{base: newBase(KindGreaterThan, 2)}
	c.cloneKidsInto(out)
	return out
}

// EqualTo compares two numeric operands for equality.
type EqualTo struct {
	base
}

func NewEqualTo(left, right Node) *EqualTo {
	c := &EqualTo{base: newBase(KindEqualTo, 2)}
	c.AddChild(left)
	c.AddChild(right)
	return c
}

func (c *EqualTo) Left() Node  { return c.Child(0) }
func (c *EqualTo) Right() Node { return c.Child(1) }

func (c *EqualTo) String() string { return renderNode(c) }

func (c *EqualTo) Interpret(env *Env) (Value, error) {
	l, err := numOperand(c.Left(), env)
	if err != nil {
		return None, err
	}
	r, err := numOperand(c.Right(), env)
	if err != nil {
		return None, err
	}
	return BoolValue(l == r), nil
}

func (c *EqualTo) Clone() Node {
	out := &EqualTo{base: newBase(KindEqualTo, 2)}
	c.cloneKidsInto(out)
	return out
}

package dsl

import "fmt"

// ReturnAction wraps an action selector. Interpretation always stops here:
// the wrapped lookup's action is the program's decision.
type ReturnAction struct {
	base
}

func NewReturnAction(target Node) *ReturnAction {
	r := &ReturnAction{base: newBase(KindReturnAction, 1)}
	r.AddChild(target)
	return r
}

func (r *ReturnAction) Target() Node { return r.Child(0) }

func (r *ReturnAction) String() string { return renderNode(r) }

func (r *ReturnAction) Interpret(env *Env) (Value, error) {
	return r.Target().Interpret(env)
}

func (r *ReturnAction) Clone() Node {
	out := &ReturnAction{base: newBase(KindReturnAction, 1)}
	r.cloneKidsInto(out)
	return out
}

// IT is an if-then statement: when the condition holds, the body's action
// is returned; otherwise the result is None so an enclosing Strategy can
// fall through.
type IT struct {
	base
}

func NewIT(condition, body Node) *IT {
	s := &IT{base: newBase(KindIT, 2)}
	s.AddChild(condition)
	s.AddChild(body)
	return s
}

func (s *IT) Condition() Node { return s.Child(0) }
func (s *IT) Body() Node      { return s.Child(1) }

func (s *IT) String() string { return renderNode(s) }

func (s *IT) Interpret(env *Env) (Value, error) {
	cond, err := s.Condition().Interpret(env)
	if err != nil {
		return None, err
	}
	if cond.Kind != ValueBool {
		return None, fmt.Errorf("dsl: IT condition %q is not boolean", s.Condition().String())
	}
	if cond.Bool {
		return s.Body().Interpret(env)
	}
	return None, nil
}

func (s *IT) Clone() Node {
	out := &IT{base: newBase(KindIT, 2)}
	s.cloneKidsInto(out)
	return out
}

// ITE is an if-then-else statement. Exactly one branch's action is
// returned; ITE never falls through.
type ITE struct {
	base
}

func NewITE(condition, body, elseBody Node) *ITE {
	s := &ITE{base: newBase(KindITE, 3)}
	s.AddChild(condition)
	s.AddChild(body)
	s.AddChild(elseBody)
	return s
}

func (s *ITE) Condition() Node { return s.Child(0) }
func (s *ITE) Body() Node      { return s.Child(1) }
func (s *ITE) Else() Node      { return s.Child(2) }

func (s *ITE) String() string { return renderNode(s) }

func (s *ITE) Interpret(env *Env) (Value, error) {
	cond, err := s.Condition().Interpret(env)
	if err != nil {
		return None, err
	}
	if cond.Kind != ValueBool {
		return None, fmt.Errorf("dsl: ITE condition %q is not boolean", s.Condition().String())
	}
	if cond.Bool {
		return s.Body().Interpret(env)
	}
	return s.Else().Interpret(env)
}

func (s *ITE) Clone() Node {
	out := &ITE{base: newBase(KindITE, 3)}
	s.cloneKidsInto(out)
	return out
}

// Strategy is the initial symbol of the grammar: a statement followed by an
// optional continuation (another Strategy or a terminal ReturnAction),
// forming a singly-linked decision list. Interpretation runs the statement
// and falls through to the continuation only when the statement made no
// decision.
type Strategy struct {
	base
}

// NewStrategy builds a decision-list link. next may be nil for a chain that
// simply ends after its statement.
func NewStrategy(statement, next Node) *Strategy {
	s := &Strategy{base: newBase(KindStrategy, 2)}
	s.AddChild(statement)
	s.AddChild(next)
	return s
}

func (s *Strategy) Statement() Node { return s.Child(0) }
func (s *Strategy) Next() Node      { return s.Child(1) }

func (s *Strategy) String() string { return renderNode(s) }

func (s *Strategy) Interpret(env *Env) (Value, error) {
	res, err := s.Statement().Interpret(env)
	if err != nil {
		return None, err
	}
	if res.Kind == ValueNone && s.Next() != nil {
		return s.Next().Interpret(env)
	}
	return res, nil
}

func (s *Strategy) Clone() Node {
	out := &Strategy{base: newBase(KindStrategy, 2)}
	s.cloneKidsInto(out)
	return out
}

package dsl

import "fmt"

// ValueKind tags the result of interpreting a node.
type ValueKind int

const (
	// ValueNone means "no decision made, continue": a Strategy chain uses
	// it to fall through to its continuation.
	ValueNone ValueKind = iota
	ValueNumber
	ValueBool
	ValueAction
)

// Value is the tagged result of Node.Interpret. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Num    float64
	Bool   bool
	Action int
}

// None is the fall-through result.
var None = Value{Kind: ValueNone}

func NumberValue(f float64) Value { return Value{Kind: ValueNumber, Num: f} }
func BoolValue(b bool) Value      { return Value{Kind: ValueBool, Bool: b} }
func ActionValue(a int) Value     { return Value{Kind: ValueAction, Action: a} }

// Env is the runtime environment a program is interpreted against.
//
// State must contain the domain readings the position readers consume
// ("player_position", "fruit_position"); Scalars holds the named scalar
// variables the grammar exposes; Actions is the discrete action set read
// through VarFromArray as "actions[i]". Arrays holds any further named
// arrays a grammar configures. A missing view or key is a configuration
// bug, not a recoverable runtime condition.
type Env struct {
	State   map[string]float64
	Scalars map[string]float64
	Actions []int
	Arrays  map[string][]int
}

func (e *Env) stateReading(key string) float64 {
	if e == nil || e.State == nil {
		panic("dsl: interpret environment has no state view")
	}
	v, ok := e.State[key]
	if !ok {
		panic(fmt.Sprintf("dsl: interpret environment is missing state reading %q", key))
	}
	return v
}

// arrayValues resolves a named array. "actions" is the built-in action set;
// anything else the grammar configured must be present in the Arrays view.
func (e *Env) arrayValues(name string) []int {
	if e == nil {
		panic("dsl: nil interpret environment")
	}
	if name == "actions" {
		if e.Actions == nil {
			panic("dsl: interpret environment has no actions view")
		}
		return e.Actions
	}
	vals, ok := e.Arrays[name]
	if !ok {
		panic(fmt.Sprintf("dsl: interpret environment is missing array %q", name))
	}
	return vals
}

// numOperand interprets n and requires a numeric result.
func numOperand(n Node, env *Env) (float64, error) {
	v, err := n.Interpret(env)
	if err != nil {
		return 0, err
	}
	if v.Kind != ValueNumber {
		return 0, fmt.Errorf("dsl: %s operand %q is not numeric", n.Kind(), n.String())
	}
	return v.Num, nil
}

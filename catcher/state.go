// Package catcher implements the Catcher game: a paddle sliding along the
// bottom of the screen tries to be under each fruit when it reaches the
// ground.
//
// The state is a plain value designed to be cheaply clonable, and the
// transition function is pure, so evaluation runs can replay episodes
// deterministically from a seed.
package catcher

// Action is a discrete paddle command.
type Action int

const (
	ActionNoop Action = iota
	ActionLeft
	ActionRight
)

var actionNames = []string{"Noop", "Left", "Right"}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "Unknown"
}

// State is a complete Catcher snapshot. Positions are x coordinates in
// screen units; the fruit falls from y=0 to y=Height.
type State struct {
	Width  float64
	Height float64

	PlayerX     float64
	PaddleWidth float64
	PlayerSpeed float64

	FruitX     float64
	FruitY     float64
	FruitSpeed float64

	Caught int32
	Missed int32
	Drops  int32
	Tick   int32
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

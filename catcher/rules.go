package catcher

import "math/rand"

// Settings are the episode knobs. The RNG is threaded through explicitly so
// callers choose between true randomness and seeded, replayable episodes.
type Settings struct {
	Width       float64
	Height      float64
	PaddleWidth float64
	PlayerSpeed float64
	FruitSpeed  float64

	// MaxDrops ends the episode after this many fruits have resolved.
	MaxDrops int32
}

var DefaultSettings = Settings{
	Width:       64,
	Height:      64,
	PaddleWidth: 8,
	PlayerSpeed: 2,
	FruitSpeed:  1,
	MaxDrops:    20,
}

// NewState starts an episode: paddle centered, first fruit spawned at a
// random column.
func NewState(rng *rand.Rand, settings Settings) *State {
	s := &State{
		Width:       settings.Width,
		Height:      settings.Height,
		PlayerX:     settings.Width / 2,
		PaddleWidth: settings.PaddleWidth,
		PlayerSpeed: settings.PlayerSpeed,
		FruitSpeed:  settings.FruitSpeed,
	}
	spawnFruit(s, rng)
	return s
}

func spawnFruit(s *State, rng *rand.Rand) {
	s.FruitX = rng.Float64() * s.Width
	s.FruitY = 0
}

// Step applies one tick: move the paddle, advance the fruit, and resolve a
// catch or miss when the fruit reaches the ground. The input state is not
// modified.
func Step(s *State, a Action, rng *rand.Rand) *State {
	next := s.Clone()
	next.Tick++

	switch a {
	case ActionLeft:
		next.PlayerX -= next.PlayerSpeed
	case ActionRight:
		next.PlayerX += next.PlayerSpeed
	}
	if next.PlayerX < 0 {
		next.PlayerX = 0
	}
	if next.PlayerX > next.Width {
		next.PlayerX = next.Width
	}

	next.FruitY += next.FruitSpeed
	if next.FruitY >= next.Height {
		if under(next) {
			next.Caught++
		} else {
			next.Missed++
		}
		next.Drops++
		spawnFruit(next, rng)
	}

	return next
}

// under reports whether the fruit column is within the paddle span.
func under(s *State) bool {
	half := s.PaddleWidth / 2
	return s.FruitX >= s.PlayerX-half && s.FruitX <= s.PlayerX+half
}

// IsDone reports whether the episode has resolved its full drop budget.
func IsDone(s *State, settings Settings) bool {
	return s.Drops >= settings.MaxDrops
}

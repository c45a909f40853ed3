package tasks

import (
	"fmt"

	"github.com/desertthunder/djtools/internal/shared"
)

// State is a step of the build lifecycle.
type State int

const (
	Idle State = iota
	Loaded
	Classifying
	Combining
	Serialized
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Classifying:
		return "classifying"
	case Combining:
		return "combining"
	case Serialized:
		return "serialized"
	case Done:
		return "done"
	default:
		return ""
	}
}

// next lists the states reachable from each state. A build with no classifiers goes straight from
// Loaded to Combining, and one with no combiners from Classifying to Serialized.
var next = map[State][]State{
	Idle:        {Loaded},
	Loaded:      {Classifying, Combining, Serialized},
	Classifying: {Combining, Serialized},
	Combining:   {Serialized},
	Serialized:  {Done},
}

// machine tracks the current state of one build.
type machine struct {
	state State
}

// transition moves to s, which must be reachable from the current state.
func (m *machine) transition(s State) error {
	for _, allowed := range next[m.state] {
		if allowed == s {
			m.state = s
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, m.state, s)
}

package navspace

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// State is a step of the exploration loop.
type State int

// Exploration states. GoalFound and Exhausted are terminal.
const (
	Unexplored State = iota
	FrontierSelected
	Planning
	PlanFound
	Navigating
	Arrived
	PlanFailed
	GoalFound
	Exhausted
)

var stateNames = map[State]string{
	Unexplored:       "unexplored",
	FrontierSelected: "frontier_selected",
	Planning:         "planning",
	PlanFound:        "plan_found",
	Navigating:       "navigating",
	Arrived:          "arrived",
	PlanFailed:       "plan_failed",
	GoalFound:        "goal_found",
	Exhausted:        "exhausted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return s == GoalFound || s == Exhausted
}

var transitions = map[State][]State{
	Unexplored:       {FrontierSelected, GoalFound, Exhausted},
	FrontierSelected: {Planning, GoalFound, Exhausted},
	Planning:         {PlanFound, PlanFailed},
	PlanFound:        {Navigating},
	Navigating:       {Arrived},
	Arrived:          {FrontierSelected, GoalFound, Exhausted},
	PlanFailed:       {FrontierSelected, GoalFound, Exhausted},
}

// ErrInvalidTransition is returned for transitions the exploration loop does not allow.
var ErrInvalidTransition = errors.New("invalid exploration transition")

// Machine tracks the exploration state of one episode.
type Machine struct {
	state   State
	history []State
}

// NewMachine returns a machine in the Unexplored state.
func NewMachine() *Machine {
	return &Machine{state: Unexplored, history: []State{Unexplored}}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// History returns every state visited, starting with Unexplored.
func (m *Machine) History() []State {
	return slices.Clone(m.history)
}

// Transition moves to the next state or returns ErrInvalidTransition.
func (m *Machine) Transition(to State) error {
	if !slices.Contains(transitions[m.state], to) {
		return errors.Wrapf(ErrInvalidTransition, "%v -> %v", m.state, to)
	}
	m.state = to
	m.history = append(m.history, to)
	return nil
}

// Count returns how many times a state was entered.
func (m *Machine) Count(s State) int {
	n := 0
	for _, h := range m.history {
		if h == s {
			n++
		}
	}
	return n
}

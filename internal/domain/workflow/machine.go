// Package workflow provides the finite-state-machine contract shared by
// every document workflow (sales, purchasing, transfers, adjustments,
// credit notes). Each workflow declares its states and a closed
// transition table once; aggregates route every status change through
// Machine.Step so no transition logic lives in ad hoc conditionals.
package workflow

import (
	"fmt"
	"sort"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// Action names a workflow command applied to a document.
type Action string

// String returns the action name
func (a Action) String() string {
	return string(a)
}

// Rule is one row of a transition table: applying Action to a document
// in state From moves it to state To.
type Rule[S ~string] struct {
	From   S
	Action Action
	To     S
}

// Machine is the closed transition table for one workflow type. A
// Machine is immutable after construction and safe for concurrent use.
type Machine[S ~string] struct {
	name      string
	initial   S
	terminals map[S]struct{}
	rules     map[S]map[Action]S
}

// NewMachine builds a Machine from its rule set. Rules with duplicate
// (from, action) pairs panic at construction time: a workflow table must
// be unambiguous.
func NewMachine[S ~string](name string, initial S, terminals []S, rules []Rule[S]) *Machine[S] {
	m := &Machine[S]{
		name:      name,
		initial:   initial,
		terminals: make(map[S]struct{}, len(terminals)),
		rules:     make(map[S]map[Action]S),
	}
	for _, t := range terminals {
		m.terminals[t] = struct{}{}
	}
	for _, r := range rules {
		byAction, ok := m.rules[r.From]
		if !ok {
			byAction = make(map[Action]S)
			m.rules[r.From] = byAction
		}
		if _, dup := byAction[r.Action]; dup {
			panic(fmt.Sprintf("workflow %s: duplicate rule (%s, %s)", name, r.From, r.Action))
		}
		byAction[r.Action] = r.To
	}
	return m
}

// Name returns the workflow type name
func (m *Machine[S]) Name() string {
	return m.name
}

// Initial returns the state every new document starts in
func (m *Machine[S]) Initial() S {
	return m.initial
}

// IsTerminal reports whether no action can leave the given state
func (m *Machine[S]) IsTerminal(state S) bool {
	_, ok := m.terminals[state]
	return ok
}

// Can reports whether the action is permitted from the given state
func (m *Machine[S]) Can(from S, action Action) bool {
	byAction, ok := m.rules[from]
	if !ok {
		return false
	}
	_, ok = byAction[action]
	return ok
}

// Actions returns the actions permitted from the given state, sorted by
// name for deterministic output.
func (m *Machine[S]) Actions(from S) []Action {
	byAction := m.rules[from]
	actions := make([]Action, 0, len(byAction))
	for a := range byAction {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// Step resolves the next state for (from, action). When the table has no
// entry it returns an INVALID_TRANSITION domain error naming the
// workflow, state, and action; errors.Is(err, shared.ErrInvalidTransition)
// holds for it.
func (m *Machine[S]) Step(from S, action Action) (S, error) {
	byAction, ok := m.rules[from]
	if ok {
		if to, ok := byAction[action]; ok {
			return to, nil
		}
	}
	var zero S
	return zero, shared.NewDomainError(
		shared.ErrInvalidTransition.Code,
		fmt.Sprintf("%s: action %q not allowed in status %q", m.name, action, from),
	)
}

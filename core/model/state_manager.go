package model

import (
	"sync"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// State is the lifecycle state of a training group.
type State int

const (
	// Initialized: population seeded or last step committed; ready for queries.
	Initialized State = iota
	// Advancing: a generation step is in progress.
	Advancing
)

func (s State) String() string {
	if s == Advancing {
		return "advancing"
	}
	return "initialized"
}

// StateManager tracks the generation counter and rejects overlapping
// generation steps. It is safe for concurrent use.
type StateManager struct {
	mu         sync.Mutex
	state      State
	generation int
}

// NewStateManager returns a manager in the Initialized state at generation 0.
func NewStateManager() *StateManager {
	return &StateManager{state: Initialized}
}

// State returns the current state.
func (s *StateManager) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the number of committed steps.
func (s *StateManager) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// IsReady reports whether at least one generation has been committed.
func (s *StateManager) IsReady() bool {
	return s.Generation() > 0
}

// Begin moves to Advancing. It fails with errors.ErrConcurrentAdvance when
// another step has not finished. Every successful Begin must be followed by
// exactly one Commit or Abort.
func (s *StateManager) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Advancing {
		return errors.WithStack(errors.ErrConcurrentAdvance)
	}
	s.state = Advancing
	return nil
}

// Commit ends a step successfully and returns the new generation number.
// The caller publishes its new state through commit while the lock is held.
func (s *StateManager) Commit(commit func(generation int)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if commit != nil {
		commit(s.generation)
	}
	s.state = Initialized
	return s.generation
}

// Abort ends a step without changing the generation counter.
func (s *StateManager) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Initialized
}

// RequireReady returns a *errors.NotReadyError until the first Commit.
func (s *StateManager) RequireReady(component, method string) error {
	if !s.IsReady() {
		return errors.NewNotReadyError(component, method)
	}
	return nil
}

// Package session provides the EncoderSession: one in-flight or completed
// encode with its state machine, output location and observed progress.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/videosend/internal/id"
	"github.com/maauso/videosend/internal/media"
)

// State represents the current state of a Session.
type State string

const (
	// StateCreated indicates the session is configured but encoding has not started.
	StateCreated State = "CREATED"
	// StateExporting indicates the encoder is running.
	StateExporting State = "EXPORTING"
	// StateCompleted indicates the encoder wrote the output file.
	StateCompleted State = "COMPLETED"
	// StateFailed indicates the encoder stopped with a failure.
	StateFailed State = "FAILED"
	// StateCancelled indicates the encode was aborted.
	StateCancelled State = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid session state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[State][]State{
	StateCreated:   {StateExporting, StateCancelled},
	StateExporting: {StateCompleted, StateFailed, StateCancelled},
	StateCompleted: {},
	StateFailed:    {},
	StateCancelled: {},
}

// canTransition checks if a transition from one state to another is valid.
func canTransition(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// IsTerminal returns true if the state is final.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Session is a single conversion attempt bound to an asset and an output path.
// It is owned by the converter invocation that drives it.
type Session struct {
	mu sync.RWMutex

	id         string
	assetPath  string
	outputPath string
	export     media.Export

	state    State
	progress float64
	err      error

	createdAt   time.Time
	updatedAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

// New creates a Session in CREATED state with a generated ID.
func New(assetPath string, export media.Export) *Session {
	now := time.Now()
	return &Session{
		id:         id.Generate("sess"),
		assetPath:  assetPath,
		outputPath: export.OutputPath(),
		export:     export,
		state:      StateCreated,
		createdAt:  now,
		updatedAt:  now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AssetPath returns the path of the source asset.
func (s *Session) AssetPath() string { return s.assetPath }

// OutputPath returns the path inside the scratch directory the encode writes to.
func (s *Session) OutputPath() string { return s.outputPath }

// Export returns the encoder export driven by this session.
func (s *Session) Export() media.Export { return s.export }

// TransitionTo attempts to change the session state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (s *Session) TransitionTo(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(state)
}

func (s *Session) transitionLocked(state State) error {
	if !canTransition(s.state, state) {
		return ErrInvalidTransition
	}

	s.state = state
	s.updatedAt = time.Now()

	switch state {
	case StateExporting:
		s.startedAt = s.updatedAt
	case StateCompleted, StateFailed, StateCancelled:
		s.completedAt = s.updatedAt
	}
	return nil
}

// Start transitions the session from CREATED to EXPORTING.
func (s *Session) Start() error {
	return s.TransitionTo(StateExporting)
}

// Complete transitions the session to COMPLETED and pins progress to 1.
func (s *Session) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(StateCompleted); err != nil {
		return err
	}
	s.progress = 1
	return nil
}

// Fail transitions the session to FAILED, recording err (which may be nil).
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if terr := s.transitionLocked(StateFailed); terr != nil {
		return terr
	}
	s.err = err
	return nil
}

// Cancel transitions the session to CANCELLED.
func (s *Session) Cancel() error {
	return s.TransitionTo(StateCancelled)
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsTerminal returns true if the session is in a terminal state.
func (s *Session) IsTerminal() bool {
	return s.State().IsTerminal()
}

// Err returns the failure recorded by Fail.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Progress returns the last recorded progress fraction in [0, 1].
func (s *Session) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// UpdateProgress records f if the session is exporting and f does not move
// progress backwards. It reports whether the value was recorded.
func (s *Session) UpdateProgress(f float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateExporting {
		return false
	}
	if f > 1 {
		f = 1
	}
	if f < s.progress {
		return false
	}
	s.progress = f
	s.updatedAt = time.Now()
	return true
}

// Snapshot is a point-in-time copy of a session's mutable fields.
type Snapshot struct {
	ID          string
	AssetPath   string
	OutputPath  string
	State       State
	Progress    float64
	Err         error
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Snapshot returns a consistent copy of the session for safe reads.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:          s.id,
		AssetPath:   s.assetPath,
		OutputPath:  s.outputPath,
		State:       s.state,
		Progress:    s.progress,
		Err:         s.err,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
	}
}

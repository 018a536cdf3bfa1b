// Package conversion provides the Conversion record that tracks one request to
// turn an asset into a sendable item, along with repository interfaces for
// keeping those records around while clients poll them.
package conversion

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/videosend/internal/id"
)

// State represents the current state of a Conversion.
type State string

const (
	// StateIdle indicates the conversion was accepted but no work has started.
	StateIdle State = "IDLE"
	// StateSessionRequested indicates an encoder session is being created.
	StateSessionRequested State = "SESSION_REQUESTED"
	// StateExporting indicates the encoder is running.
	StateExporting State = "EXPORTING"
	// StateSucceeded indicates the output file was produced.
	StateSucceeded State = "SUCCEEDED"
	// StateFailed indicates the conversion stopped with an error.
	StateFailed State = "FAILED"
	// StateCancelled indicates the conversion was aborted.
	StateCancelled State = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid conversion state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[State][]State{
	StateIdle:             {StateSessionRequested, StateFailed, StateCancelled},
	StateSessionRequested: {StateExporting, StateFailed, StateCancelled},
	StateExporting:        {StateSucceeded, StateFailed, StateCancelled},
	StateSucceeded:        {},
	StateFailed:           {},
	StateCancelled:        {},
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
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Conversion represents a single asset conversion request.
type Conversion struct {
	mu sync.RWMutex

	// ID is the unique identifier for this conversion.
	ID string
	// Source is the asset reference the caller submitted.
	Source string
	// State is the current conversion state.
	State State
	// SessionID identifies the encoder session once one exists.
	SessionID string
	// Progress is the percentage of completion (0-100).
	Progress int
	// Error contains any error message if the conversion failed.
	Error string
	// OutputPath is the encoded file inside the scratch directory.
	OutputPath string
	// CreatedAt is when the conversion was created.
	CreatedAt time.Time
	// UpdatedAt is when the conversion was last updated.
	UpdatedAt time.Time
	// StartedAt is when encoding started.
	StartedAt time.Time
	// CompletedAt is when the conversion reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Conversion for source with a generated ID in IDLE state.
func New(source string) *Conversion {
	return NewWithID(id.Generate("conv"), source)
}

// NewWithID creates a new Conversion with the specified ID in IDLE state.
// Useful for testing or when the ID is generated externally.
func NewWithID(convID, source string) *Conversion {
	now := time.Now()
	return &Conversion{
		ID:        convID,
		Source:    source,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the conversion state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (c *Conversion) TransitionTo(state State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(state)
}

func (c *Conversion) transitionLocked(state State) error {
	if !canTransition(c.State, state) {
		return ErrInvalidTransition
	}

	c.State = state
	c.UpdatedAt = time.Now()

	switch state {
	case StateExporting:
		c.StartedAt = c.UpdatedAt
	case StateSucceeded, StateFailed, StateCancelled:
		c.CompletedAt = c.UpdatedAt
	}
	return nil
}

// RequestSession transitions the conversion from IDLE to SESSION_REQUESTED.
func (c *Conversion) RequestSession() error {
	return c.TransitionTo(StateSessionRequested)
}

// StartExporting records the encoder session and moves to EXPORTING.
func (c *Conversion) StartExporting(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transitionLocked(StateExporting); err != nil {
		return err
	}
	c.SessionID = sessionID
	return nil
}

// Succeed records the output path and moves to SUCCEEDED with full progress.
func (c *Conversion) Succeed(outputPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transitionLocked(StateSucceeded); err != nil {
		return err
	}
	c.OutputPath = outputPath
	c.Progress = 100
	return nil
}

// Fail transitions the conversion to FAILED with an error message.
func (c *Conversion) Fail(errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transitionLocked(StateFailed); err != nil {
		return err
	}
	c.Error = errMsg
	return nil
}

// Cancel transitions the conversion to CANCELLED.
func (c *Conversion) Cancel() error {
	return c.TransitionTo(StateCancelled)
}

// GetState returns the current conversion state (thread-safe).
func (c *Conversion) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.State
}

// UpdateProgress sets the progress percentage (0-100). Values that do not
// move progress forward are ignored. It reports whether progress changed.
func (c *Conversion) UpdateProgress(progress int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if progress > 100 {
		progress = 100
	}
	if progress <= c.Progress {
		return false
	}
	c.Progress = progress
	c.UpdatedAt = time.Now()
	return true
}

// IsTerminal returns true if the conversion is in a terminal state.
func (c *Conversion) IsTerminal() bool {
	return c.GetState().IsTerminal()
}

// Clone creates a copy of the conversion for safe reads.
func (c *Conversion) Clone() *Conversion {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Conversion{
		ID:          c.ID,
		Source:      c.Source,
		State:       c.State,
		SessionID:   c.SessionID,
		Progress:    c.Progress,
		Error:       c.Error,
		OutputPath:  c.OutputPath,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
	}
}

package conversion

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	c := New("file:///videos/in.mov")

	if !strings.HasPrefix(c.ID, "conv-") {
		t.Errorf("expected ID to start with 'conv-', got %s", c.ID)
	}
	if c.Source != "file:///videos/in.mov" {
		t.Errorf("unexpected source %s", c.Source)
	}
	if c.State != StateIdle {
		t.Errorf("expected state %s, got %s", StateIdle, c.State)
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestNewWithID(t *testing.T) {
	c := NewWithID("custom-id", "file:///a.mp4")
	if c.ID != "custom-id" {
		t.Errorf("expected ID custom-id, got %s", c.ID)
	}
}

func TestConversion_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"IDLE to SESSION_REQUESTED", StateIdle, StateSessionRequested, false},
		{"IDLE to FAILED", StateIdle, StateFailed, false},
		{"IDLE to CANCELLED", StateIdle, StateCancelled, false},
		{"SESSION_REQUESTED to EXPORTING", StateSessionRequested, StateExporting, false},
		{"SESSION_REQUESTED to FAILED", StateSessionRequested, StateFailed, false},
		{"EXPORTING to SUCCEEDED", StateExporting, StateSucceeded, false},
		{"EXPORTING to FAILED", StateExporting, StateFailed, false},
		{"EXPORTING to CANCELLED", StateExporting, StateCancelled, false},
		// Invalid transitions
		{"IDLE to EXPORTING", StateIdle, StateExporting, true},
		{"IDLE to SUCCEEDED", StateIdle, StateSucceeded, true},
		{"SESSION_REQUESTED to SUCCEEDED", StateSessionRequested, StateSucceeded, true},
		{"SUCCEEDED to FAILED", StateSucceeded, StateFailed, true},
		{"FAILED to EXPORTING", StateFailed, StateExporting, true},
		{"CANCELLED to IDLE", StateCancelled, StateIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("file:///a.mp4")
			c.State = tt.from

			err := c.TransitionTo(tt.to)

			if tt.wantErr && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition for %s -> %s, got %v", tt.from, tt.to, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestConversion_HappyPath(t *testing.T) {
	c := New("file:///a.mp4")

	if err := c.RequestSession(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.StartExporting("sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.SessionID != "sess-1" {
		t.Errorf("expected session ID sess-1, got %s", c.SessionID)
	}
	if c.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	c.UpdateProgress(40)
	if err := c.Succeed("/tmp/out.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.OutputPath != "/tmp/out.mp4" {
		t.Errorf("expected output path to be recorded, got %s", c.OutputPath)
	}
	if c.Progress != 100 {
		t.Errorf("expected progress 100, got %d", c.Progress)
	}
	if c.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
	if !c.IsTerminal() {
		t.Error("expected conversion to be terminal")
	}
}

func TestConversion_StartExporting_InvalidKeepsSession(t *testing.T) {
	c := New("file:///a.mp4")
	if err := c.StartExporting("sess-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if c.SessionID != "" {
		t.Error("session ID must not be recorded on invalid transition")
	}
}

func TestConversion_Fail(t *testing.T) {
	c := New("file:///a.mp4")
	_ = c.RequestSession()

	if err := c.Fail("session creation failed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.GetState() != StateFailed {
		t.Errorf("expected state %s, got %s", StateFailed, c.GetState())
	}
	if c.Error != "session creation failed" {
		t.Errorf("unexpected error message %q", c.Error)
	}
	if err := c.Fail("again"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if c.Error != "session creation failed" {
		t.Error("second failure must not overwrite the message")
	}
}

func TestConversion_UpdateProgress(t *testing.T) {
	c := New("file:///a.mp4")

	if !c.UpdateProgress(30) {
		t.Error("expected progress change to be reported")
	}
	if c.Progress != 30 {
		t.Errorf("expected 30, got %d", c.Progress)
	}

	if c.UpdateProgress(10) {
		t.Error("backwards progress should not be reported as a change")
	}
	if c.Progress != 30 {
		t.Errorf("expected progress to stay at 30, got %d", c.Progress)
	}

	c.UpdateProgress(150)
	if c.Progress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", c.Progress)
	}
}

func TestConversion_Clone(t *testing.T) {
	c := New("file:///a.mp4")
	_ = c.RequestSession()
	c.UpdateProgress(50)

	clone := c.Clone()
	if clone.ID != c.ID || clone.State != c.State || clone.Progress != c.Progress {
		t.Error("clone should match original")
	}

	clone.Progress = 99
	clone.State = StateFailed
	if c.Progress != 50 || c.State != StateSessionRequested {
		t.Error("modifying clone should not affect original")
	}
}

// coordinator/coordinator_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package coordinator

import "testing"

type recordingSink struct {
	calls []Phase
}

func (s *recordingSink) PhaseChanged(op Operation, phase Phase) {
	s.calls = append(s.calls, phase)
}

func TestStartTransitionComplete(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink)

	if c.Phase() != Idle {
		t.Fatalf("expected initial phase Idle, got %v", c.Phase())
	}

	op := c.Start("transcribe")
	if c.Phase() != Recording {
		t.Fatalf("expected Recording after Start, got %v", c.Phase())
	}
	if !c.IsActive(op.ID) {
		t.Fatalf("expected op %d to be active", op.ID)
	}

	if !c.TransitionToProcessing(op.ID) {
		t.Fatalf("TransitionToProcessing: expected true")
	}
	if c.Phase() != Processing {
		t.Fatalf("expected Processing, got %v", c.Phase())
	}

	if !c.Complete(op.ID) {
		t.Fatalf("Complete: expected true")
	}
	if c.Phase() != Idle {
		t.Fatalf("expected Idle after Complete, got %v", c.Phase())
	}

	want := []Phase{Recording, Processing, Idle}
	if len(sink.calls) != len(want) {
		t.Fatalf("sink calls = %v, want %v", sink.calls, want)
	}
	for i, p := range want {
		if sink.calls[i] != p {
			t.Errorf("sink.calls[%d] = %v, want %v", i, sink.calls[i], p)
		}
	}
}

func TestSupersession(t *testing.T) {
	c := New(nil)

	first := c.Start("transcribe")
	second := c.Start("transcribe") // supersedes first

	if first.ID == second.ID {
		t.Fatalf("expected distinct monotonic operation IDs")
	}
	if c.IsActive(first.ID) {
		t.Fatalf("first op should no longer be active after supersession")
	}
	if !c.IsActive(second.ID) {
		t.Fatalf("second op should be active")
	}

	// A stale transition/complete against the superseded op must fail.
	if c.TransitionToProcessing(first.ID) {
		t.Fatalf("TransitionToProcessing on superseded op should return false")
	}
	if c.Complete(first.ID) {
		t.Fatalf("Complete on superseded op should return false")
	}

	// The active op is unaffected by the stale calls above.
	if c.Phase() != Recording {
		t.Fatalf("expected Recording, got %v", c.Phase())
	}
}

func TestCancelForcesIdle(t *testing.T) {
	c := New(nil)
	op := c.Start("transcribe")
	c.TransitionToProcessing(op.ID)

	c.Cancel()
	if c.Phase() != Idle {
		t.Fatalf("expected Idle after Cancel, got %v", c.Phase())
	}
	if c.IsActive(op.ID) {
		t.Fatalf("op should not be active after Cancel")
	}
}

func TestShortcutState(t *testing.T) {
	var s ShortcutState
	if s.Load() != Idle {
		t.Fatalf("zero value should be Idle, got %v", s.Load())
	}
	if !s.CanAcceptHotkey() {
		t.Fatalf("Idle should accept hotkeys")
	}

	s.Store(Processing)
	if s.CanAcceptHotkey() {
		t.Fatalf("Processing should not accept hotkeys")
	}

	s.Store(Recording)
	if !s.CanAcceptHotkey() {
		t.Fatalf("Recording should accept hotkeys")
	}
}

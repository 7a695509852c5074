// hotkey/dispatcher_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hotkey

import (
	"sync"
	"testing"
	"time"

	"github.com/scribehq/scribe/config"
	"github.com/scribehq/scribe/coordinator"
	"github.com/scribehq/scribe/log"
)

type fakeRecorder struct {
	mu        sync.Mutex
	started   map[string]bool
	cancelled bool
	stopped   []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{started: make(map[string]bool)}
}

func (f *fakeRecorder) TryStart(bindingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, started := range f.started {
		if started {
			return false, nil
		}
	}
	f.started[bindingID] = true
	return true, nil
}

func (f *fakeRecorder) Stop(bindingID string) ([]float32, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started[bindingID] {
		return nil, false, nil
	}
	f.started[bindingID] = false
	f.stopped = append(f.stopped, bindingID)
	return []float32{1, 2, 3}, true, nil
}

func (f *fakeRecorder) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	for k := range f.started {
		f.started[k] = false
	}
}

type fakeSession struct {
	mu      sync.Mutex
	begun   []uint64
	ended   []uint64
	samples map[uint64][]float32
}

func newFakeSession() *fakeSession {
	return &fakeSession{samples: make(map[uint64][]float32)}
}

func (f *fakeSession) Begin(op coordinator.Operation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, op.ID)
}

func (f *fakeSession) End(op coordinator.Operation, samples []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, op.ID)
	f.samples[op.ID] = samples
}

func testBindings() []config.Binding {
	return []config.Binding{
		{ID: "transcribe", HotkeyString: "ctrl+shift+space", Mode: config.ModePushToTalk},
		{ID: "toggle_dictate", HotkeyString: "ctrl+shift+d", Mode: config.ModeToggle},
		{ID: "cancel", HotkeyString: "escape", Mode: config.ModePushToTalk},
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeRecorder, *fakeSession) {
	t.Helper()
	lg := log.New(false, "error", t.TempDir())
	coord := coordinator.New(nil)
	rec := newFakeRecorder()
	sess := newFakeSession()
	state := &coordinator.ShortcutState{}
	d := NewDispatcher(lg, coord, rec, sess, state, testBindings())
	return d, rec, sess
}

func TestDispatcherPushToTalk(t *testing.T) {
	d, rec, sess := newTestDispatcher(t)

	d.OnPress("transcribe")
	if !rec.started["transcribe"] {
		t.Fatalf("expected recording to start")
	}
	if len(sess.begun) != 1 {
		t.Fatalf("expected Session.Begin called once, got %d", len(sess.begun))
	}

	d.OnRelease("transcribe")
	if len(sess.ended) != 1 {
		t.Fatalf("expected Session.End called once, got %d", len(sess.ended))
	}
	if len(rec.stopped) != 1 || rec.stopped[0] != "transcribe" {
		t.Fatalf("expected recorder Stop called for transcribe, got %v", rec.stopped)
	}
}

func TestDispatcherDebounce(t *testing.T) {
	d, rec, sess := newTestDispatcher(t)

	d.OnPress("transcribe")
	d.OnPress("transcribe") // within debounce window: ignored
	d.OnRelease("transcribe")

	if len(sess.begun) != 1 {
		t.Fatalf("expected exactly one Begin despite repeated press, got %d", len(sess.begun))
	}
	_ = rec
}

func TestDispatcherDebounceExpires(t *testing.T) {
	d, rec, sess := newTestDispatcher(t)

	d.OnPress("transcribe")
	d.OnRelease("transcribe")

	time.Sleep(35 * time.Millisecond) // past debounceWindow

	d.OnPress("transcribe")
	d.OnRelease("transcribe")

	if len(sess.begun) != 2 {
		t.Fatalf("expected two Begin calls after debounce window elapsed, got %d", len(sess.begun))
	}
	_ = rec
}

func TestDispatcherToggle(t *testing.T) {
	d, _, sess := newTestDispatcher(t)

	d.OnPress("toggle_dictate") // Idle -> start
	if len(sess.begun) != 1 {
		t.Fatalf("expected Begin after first toggle press")
	}

	time.Sleep(35 * time.Millisecond)
	d.OnPress("toggle_dictate") // Recording -> stop
	if len(sess.ended) != 1 {
		t.Fatalf("expected End after second toggle press")
	}
}

func TestDispatcherCancelOnlyWhileRecording(t *testing.T) {
	d, rec, _ := newTestDispatcher(t)

	// Cancel while Idle: no-op.
	d.OnPress("cancel")
	if rec.cancelled {
		t.Fatalf("cancel while Idle should be a no-op")
	}

	d.OnPress("transcribe")
	time.Sleep(35 * time.Millisecond)
	d.OnPress("cancel")
	if !rec.cancelled {
		t.Fatalf("expected cancel to fire while Recording")
	}
}

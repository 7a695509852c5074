// transcribe/manager_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package transcribe

import (
	"errors"
	"testing"

	"github.com/scribehq/scribe/log"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	lg := log.New(false, "error", t.TempDir())
	return NewManager(lg, nil)
}

func TestManagerInitialState(t *testing.T) {
	m := newTestManager(t)

	if m.State() != StateUnloaded {
		t.Fatalf("expected initial state Unloaded, got %v", m.State())
	}
	if _, ok := m.ActiveModel(); ok {
		t.Fatalf("expected no active model before any load")
	}
}

func TestManagerTranscribeBeforeLoadFails(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Transcribe([]float32{0, 0, 0}); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
	if _, err := m.TranscribeVerbose([]float32{0, 0, 0}); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded from TranscribeVerbose, got %v", err)
	}
}

func TestManagerAwaitLoadedSurfacesLoadError(t *testing.T) {
	m := newTestManager(t)

	m.mu.Lock()
	m.state = StateUnloaded
	m.loadErr = ErrModelLoadFailed
	m.mu.Unlock()

	if _, err := m.Transcribe(nil); !errors.Is(err, ErrModelLoadFailed) {
		t.Fatalf("expected the stored load error to surface, got %v", err)
	}
}

func TestManagerStreamingBracketDepth(t *testing.T) {
	m := newTestManager(t)

	m.BeginStreaming()
	m.BeginStreaming()
	if m.streamingDepth != 2 {
		t.Fatalf("streamingDepth = %d, want 2", m.streamingDepth)
	}

	m.EndStreaming()
	if m.streamingDepth != 1 {
		t.Fatalf("streamingDepth = %d, want 1", m.streamingDepth)
	}

	m.EndStreaming()
	m.EndStreaming() // already at 0: must not go negative
	if m.streamingDepth != 0 {
		t.Fatalf("streamingDepth = %d, want 0 (floor at zero)", m.streamingDepth)
	}
}

func TestModelStateString(t *testing.T) {
	cases := map[ModelState]string{
		StateUnloaded:  "Unloaded",
		StateLoading:   "Loading",
		StateLoaded:    "Loaded",
		StateUnloading: "Unloading",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

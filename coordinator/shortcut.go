// coordinator/shortcut.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package coordinator

import "sync/atomic"

// ShortcutState is the cheap 3-state atomic the hotkey dispatcher consults
// before doing any work, functionally redundant with Coordinator's mutex-
// guarded phase but evaluated without acquiring a lock so that key-repeat
// events can be rejected on the hot path (§4.8 "Shortcut state").
type ShortcutState struct {
	v atomic.Int32
}

// Store records phase as the dispatcher's fast-path view of the world.
func (s *ShortcutState) Store(phase Phase) {
	s.v.Store(int32(phase))
}

// Load returns the fast-path phase.
func (s *ShortcutState) Load() Phase {
	return Phase(s.v.Load())
}

// CanAcceptHotkey reports whether the dispatcher should bother invoking the
// coordinator at all for a plain (non-cancel) binding: Idle or Recording
// both may proceed (start / stop respectively); Processing never does.
func (s *ShortcutState) CanAcceptHotkey() bool {
	return s.Load() != Processing
}

// stream/session.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package stream

import (
	"github.com/scribehq/scribe/coordinator"
	"github.com/scribehq/scribe/log"
)

// Session adapts a Controller to the hotkey.Session interface, owning the
// coordinator completion and shortcut-state update that must happen once
// the final paste (or failure) is resolved.
type Session struct {
	lg    *log.Logger
	coord *coordinator.Coordinator
	state *coordinator.ShortcutState
	ctrl  *Controller
}

func NewSession(lg *log.Logger, coord *coordinator.Coordinator, state *coordinator.ShortcutState, ctrl *Controller) *Session {
	return &Session{lg: lg, coord: coord, state: state, ctrl: ctrl}
}

func (s *Session) Begin(op coordinator.Operation) {
	s.ctrl.Begin(op)
}

func (s *Session) End(op coordinator.Operation, samples []float32) {
	go func() {
		s.ctrl.Finalize(op, samples)
		s.coord.Complete(op.ID)
		s.state.Store(coordinator.Idle)
	}()
}

// stream/simple.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package stream

import (
	"github.com/scribehq/scribe/coordinator"
	"github.com/scribehq/scribe/log"
)

// SimpleSession implements hotkey.Session for the non-streaming path: one
// transcription and one paste after the recording stops, no intermediate
// replace_all calls.
type SimpleSession struct {
	lg     *log.Logger
	coord  *coordinator.Coordinator
	state  *coordinator.ShortcutState
	tx     Transcriber
	paster Paster
	binding string
}

func NewSimpleSession(lg *log.Logger, coord *coordinator.Coordinator, state *coordinator.ShortcutState, tx Transcriber, paster Paster, binding string) *SimpleSession {
	return &SimpleSession{lg: lg, coord: coord, state: state, tx: tx, paster: paster, binding: binding}
}

func (s *SimpleSession) Begin(coordinator.Operation) {}

func (s *SimpleSession) End(op coordinator.Operation, samples []float32) {
	go func() {
		defer func() {
			s.coord.Complete(op.ID)
			s.state.Store(coordinator.Idle)
		}()

		if len(samples) == 0 {
			return
		}
		if !s.coord.IsActive(op.ID) {
			return
		}

		text, err := s.tx.Transcribe(samples)
		if err != nil {
			s.lg.Warnf("stream: transcription failed: %v", err)
			return
		}
		if !s.coord.IsActive(op.ID) {
			return
		}
		if err := s.paster.Paste(text, s.binding); err != nil {
			s.lg.Warnf("stream: paste failed: %v", err)
		}
	}()
}

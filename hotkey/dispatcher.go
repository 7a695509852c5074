// hotkey/dispatcher.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hotkey

import (
	"sync"
	"time"

	"github.com/scribehq/scribe/config"
	"github.com/scribehq/scribe/coordinator"
	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/util"
)

const debounceWindow = 30 * time.Millisecond

// Recorder is the subset of audio.Manager the dispatcher drives.
type Recorder interface {
	TryStart(bindingID string) (bool, error)
	Stop(bindingID string) ([]float32, bool, error)
	Cancel()
}

// Session owns what happens with a completed recording; it's the seam
// between the dispatcher and the streaming controller / transcription
// pipeline so this package stays ignorant of either.
type Session interface {
	// Begin is called synchronously from the press handler, before any
	// audio has been captured, so the session can register VAD hooks.
	Begin(op coordinator.Operation)
	// End is called once stop() has produced samples (possibly empty).
	End(op coordinator.Operation, samples []float32)
}

// Dispatcher owns a set of bindings and converts raw press/release events
// (from OS hotkeys, modifier-key monitors, or process signals) into
// coordinator-tracked start/stop/cancel calls (§4.9).
type Dispatcher struct {
	lg      *log.Logger
	coord   *coordinator.Coordinator
	rec     Recorder
	session Session
	state   *coordinator.ShortcutState

	mu        sync.Mutex
	bindings  map[string]config.Binding
	lastPress map[string]time.Time
	activeOp  map[string]coordinator.Operation

	// suppressClamshell is read on every press and written rarely (once at
	// startup, or on a config reload), so it's a plain atomic rather than
	// something guarded by mu.
	suppressClamshell util.AtomicBool
}

// SetSuppressWhenClamshellClosed controls whether start() is inhibited
// while the lid is closed (external-display clamshell mode), avoiding
// recording through a muffled built-in microphone.
func (d *Dispatcher) SetSuppressWhenClamshellClosed(v bool) {
	d.suppressClamshell.Store(v)
}

func NewDispatcher(lg *log.Logger, coord *coordinator.Coordinator, rec Recorder, session Session, state *coordinator.ShortcutState, bindings []config.Binding) *Dispatcher {
	d := &Dispatcher{
		lg:        lg,
		coord:     coord,
		rec:       rec,
		session:   session,
		state:     state,
		bindings:  make(map[string]config.Binding, len(bindings)),
		lastPress: make(map[string]time.Time),
		activeOp:  make(map[string]coordinator.Operation),
	}
	for _, b := range bindings {
		d.bindings[b.ID] = b
	}
	return d
}

// SetBindings replaces the binding table wholesale, e.g. after a config
// reload.
func (d *Dispatcher) SetBindings(bindings []config.Binding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings = make(map[string]config.Binding, len(bindings))
	for _, b := range bindings {
		d.bindings[b.ID] = b
	}
}

// OnPress handles a press event for bindingID, applying the 30ms debounce
// (§4.9 "Debounce"; release events are never debounced).
func (d *Dispatcher) OnPress(bindingID string) {
	d.mu.Lock()
	now := time.Now()
	if last, ok := d.lastPress[bindingID]; ok && now.Sub(last) < debounceWindow {
		d.mu.Unlock()
		return
	}
	d.lastPress[bindingID] = now
	b, ok := d.bindings[bindingID]
	d.mu.Unlock()

	if !ok {
		d.lg.Warnf("hotkey: press for unknown binding %q", bindingID)
		return
	}

	if b.ID == "cancel" {
		d.handleCancel()
		return
	}

	switch b.Mode {
	case config.ModePushToTalk:
		d.start(b.ID)
	case config.ModeToggle:
		d.handleToggle(b.ID)
	default:
		d.lg.Warnf("hotkey: binding %q has unknown mode %q", b.ID, b.Mode)
	}
}

// OnRelease handles a release event; only meaningful for push-to-talk
// bindings.
func (d *Dispatcher) OnRelease(bindingID string) {
	d.mu.Lock()
	b, ok := d.bindings[bindingID]
	d.mu.Unlock()

	if !ok || b.Mode != config.ModePushToTalk {
		return
	}
	d.stop(b.ID)
}

func (d *Dispatcher) handleToggle(bindingID string) {
	if !d.state.CanAcceptHotkey() {
		return // Processing: ignore (§4.9)
	}
	switch d.coord.Phase() {
	case coordinator.Idle:
		d.start(bindingID)
	case coordinator.Recording:
		d.stop(bindingID)
	case coordinator.Processing:
		// Ignore; consistent with the shortcut-state fast path above.
	}
}

// handleCancel fires only on press, only while Recording (§4.9 "Cancel
// binding").
func (d *Dispatcher) handleCancel() {
	if d.coord.Phase() != coordinator.Recording {
		return
	}
	d.rec.Cancel()
	d.coord.Cancel()
	d.state.Store(coordinator.Idle)
}

func (d *Dispatcher) start(bindingID string) {
	if d.suppressClamshell.Load() {
		if closed, err := IsClamshellClosed(); err == nil && closed {
			d.lg.Debugf("hotkey: suppressing %q while clamshell is closed", bindingID)
			return
		}
	}

	started, err := d.rec.TryStart(bindingID)
	if err != nil {
		d.lg.Errorf("hotkey: start %q failed: %v", bindingID, err)
		return
	}
	if !started {
		return
	}

	op := d.coord.Start(bindingID)
	d.state.Store(coordinator.Recording)

	d.mu.Lock()
	d.activeOp[bindingID] = op
	d.mu.Unlock()

	if d.session != nil {
		d.session.Begin(op)
	}
}

func (d *Dispatcher) stop(bindingID string) {
	d.mu.Lock()
	op, ok := d.activeOp[bindingID]
	delete(d.activeOp, bindingID)
	d.mu.Unlock()
	if !ok {
		return
	}

	if !d.coord.TransitionToProcessing(op.ID) {
		// Already superseded; recorder state for this binding is stale.
		return
	}
	d.state.Store(coordinator.Processing)

	samples, matched, err := d.rec.Stop(bindingID)
	if err != nil {
		d.lg.Errorf("hotkey: stop %q failed: %v", bindingID, err)
		d.coord.Complete(op.ID)
		d.state.Store(coordinator.Idle)
		return
	}
	if !matched {
		return
	}

	if d.session != nil {
		d.session.End(op, samples)
	}
}

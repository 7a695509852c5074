// hotkey/fnkey.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hotkey

import (
	"sync"

	gohook "github.com/robotn/gohook"

	"github.com/scribehq/scribe/log"
)

// FnKeyMonitor watches the raw low-level keyboard event stream for the
// Fn/Globe key, which OS-level hotkey APIs generally refuse to register
// directly. The binding whose ID is "fn" is driven from here instead of
// the platform hotkey backend.
type FnKeyMonitor struct {
	lg *log.Logger
	d  *Dispatcher

	mu      sync.Mutex
	pressed bool
}

func NewFnKeyMonitor(lg *log.Logger, d *Dispatcher) *FnKeyMonitor {
	return &FnKeyMonitor{lg: lg, d: d}
}

// the raw keycode gohook reports for the Fn key on the platforms that
// expose it at all (macOS); other platforms never see this code.
const fnKeyRawcode = 179

// Start begins listening in the background. It never returns an error:
// a platform with no Fn key simply never produces a matching event.
func (m *FnKeyMonitor) Start(stop <-chan struct{}) {
	events := gohook.Start()
	go func() {
		defer gohook.End()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.handle(ev)
			case <-stop:
				return
			}
		}
	}()
}

func (m *FnKeyMonitor) handle(ev gohook.Event) {
	if ev.Rawcode != fnKeyRawcode {
		return
	}

	switch ev.Kind {
	case gohook.KeyDown:
		m.mu.Lock()
		already := m.pressed
		m.pressed = true
		m.mu.Unlock()
		if !already {
			m.d.OnPress("fn")
		}
	case gohook.KeyUp:
		m.mu.Lock()
		m.pressed = false
		m.mu.Unlock()
		m.d.OnRelease("fn")
	}
}

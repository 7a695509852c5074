// hotkey/signal.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !windows

package hotkey

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

// WatchSignal toggles bindingID (the main program passes "transcribe") on
// SIGUSR2, for platforms that support it (§6 "Process signals"). The
// handler is reentrant-safe: it applies the same 30ms press debounce as
// OnPress and then the toggle handling regardless of the binding's mode,
// so it only ever performs Idle->Recording or Recording->Processing
// transitions.
func (d *Dispatcher) WatchSignal(bindingID string, stop <-chan struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR2)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ch:
				d.mu.Lock()
				now := time.Now()
				if last, ok := d.lastPress[bindingID]; ok && now.Sub(last) < debounceWindow {
					d.mu.Unlock()
					continue
				}
				d.lastPress[bindingID] = now
				d.mu.Unlock()
				d.handleToggle(bindingID)
			case <-stop:
				return
			}
		}
	}()
}

// hotkey/signal_windows.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build windows

package hotkey

// WatchSignal is a no-op on Windows, which has no SIGUSR2 equivalent
// (§6 "Process signals" is scoped to platforms that support it).
func (d *Dispatcher) WatchSignal(bindingID string, stop <-chan struct{}) {}

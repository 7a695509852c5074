// inject/backspace.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package inject

import (
	"time"

	gohook "github.com/robotn/gohook"
)

const (
	backspaceBatchSize  = 20
	backspaceBatchSleep = 15 * time.Millisecond
)

// Backspacer sends n backspace keystrokes in small batches with short
// sleeps so the OS input queue never overflows (§4.7 "Text replacer").
type Backspacer struct{}

func NewBackspacer() *Backspacer { return &Backspacer{} }

func (Backspacer) SendBackspaces(n int) error {
	for n > 0 {
		batch := n
		if batch > backspaceBatchSize {
			batch = backspaceBatchSize
		}
		for i := 0; i < batch; i++ {
			if !gohook.AddEvent("backspace") {
				return ErrPasteFailed
			}
		}
		n -= batch
		if n > 0 {
			time.Sleep(backspaceBatchSleep)
		}
	}
	return nil
}

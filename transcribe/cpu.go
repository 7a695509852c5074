// transcribe/cpu.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package transcribe

import (
	"errors"
	"runtime"

	"golang.org/x/sys/cpu"
)

// ErrCPUNotSupported is returned when the host CPU lacks the instruction
// sets the speech model requires (AVX on x86/amd64; ARM's NEON is assumed
// always present).
var ErrCPUNotSupported = errors.New("transcribe: CPU does not support required instructions")

// CheckCPUSupport verifies the host can run the speech model at all,
// before any model load is attempted.
func CheckCPUSupport() error {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "386" {
		return nil
	}
	if cpu.X86.HasAVX {
		return nil
	}
	return ErrCPUNotSupported
}

// hotkey/clamshell_darwin.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build darwin

package hotkey

import (
	"os/exec"
	"strings"
)

// IsClamshellClosed reports whether the lid is closed while an external
// display is attached, by querying the IORegistry the way the rest of the
// pack's macOS helpers do. Suppressing hotkey dispatch in this state
// avoids recording through a closed, muffled built-in microphone.
func IsClamshellClosed() (bool, error) {
	out, err := exec.Command("ioreg", "-r", "-k", "AppleClamshellState", "-d", "4").Output()
	if err != nil {
		return false, err
	}
	return strings.Contains(string(out), `"AppleClamshellState" = Yes`), nil
}

// inject/frontmost_darwin.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build darwin

package inject

import (
	"os/exec"
	"strings"
)

// frontmostProcessName asks the Finder for the name of the frontmost
// application, used by the process-filter denylist.
func frontmostProcessName() string {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first process whose frontmost is true`).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// hotkey/clamshell_other.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !darwin

package hotkey

// IsClamshellClosed always reports false on platforms with no lid-state
// concept.
func IsClamshellClosed() (bool, error) {
	return false, nil
}

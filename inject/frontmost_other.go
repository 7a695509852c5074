// inject/frontmost_other.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !darwin

package inject

// frontmostProcessName has no portable implementation; returning "" means
// the process filter is skipped rather than blocking every paste.
func frontmostProcessName() string {
	return ""
}

// inject/filter.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package inject

import "strings"

// DenylistFilter blocks injection into processes whose name contains one
// of a configured set of substrings, case-insensitive (e.g. password
// managers, terminal-based secret prompts).
type DenylistFilter struct {
	entries []string
}

func NewDenylistFilter(entries []string) *DenylistFilter {
	lowered := make([]string, len(entries))
	for i, e := range entries {
		lowered[i] = strings.ToLower(e)
	}
	return &DenylistFilter{entries: lowered}
}

func (f *DenylistFilter) Blocked(processName string) bool {
	name := strings.ToLower(processName)
	for _, e := range f.entries {
		if e != "" && strings.Contains(name, e) {
			return true
		}
	}
	return false
}

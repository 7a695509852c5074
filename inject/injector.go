// inject/injector.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package inject implements the §4.10 text injector: clipboard save,
// write, synthetic paste, restore.
package inject

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hashicorp/golang-lru/v2/expirable"
	gohook "github.com/robotn/gohook"

	"github.com/scribehq/scribe/hotkey"
	"github.com/scribehq/scribe/log"
)

// frontmostCacheTTL bounds how stale the cached frontmost-process name can
// get. Streaming mode calls Paste repeatedly within one dictation session
// (§4.7 "Text replacer"), each of which would otherwise shell out to
// osascript; a short TTL collapses those into one lookup per burst while
// still noticing the user switching apps mid-session.
const frontmostCacheTTL = 500 * time.Millisecond

const frontmostCacheKey = "frontmost"

// ErrPasteFailed wraps any clipboard or key-synthesis failure (§7).
var ErrPasteFailed = errors.New("inject: paste failed")

const (
	preSettleDelay  = 50 * time.Millisecond
	postPasteDelay  = 50 * time.Millisecond
)

// ProcessFilter decides whether injection should be skipped for the
// application currently owning keyboard focus (supplemented feature,
// config field process_filter_denylist).
type ProcessFilter interface {
	Blocked(frontmostProcessName string) bool
}

// Injector performs the save/write/paste/restore sequence.
type Injector struct {
	lg             *log.Logger
	defaultBind    hotkey.ParsedBinding
	filter         ProcessFilter
	frontmostFunc  func() string
	frontmostCache *expirable.LRU[string, string]

	// Seams over the OS-level clipboard and key-synthesis calls, so tests
	// can substitute fakes. New wires these to the real implementations.
	readClipboard  func() (string, error)
	writeClipboard func(string) error
	dispatchFunc   func(hotkey.ParsedBinding) error
}

func New(lg *log.Logger, defaultPasteBinding string, filter ProcessFilter) (*Injector, error) {
	pb, err := hotkey.Parse(defaultPasteBinding)
	if err != nil {
		return nil, fmt.Errorf("inject: invalid default paste binding: %w", err)
	}
	inj := &Injector{
		lg:             lg,
		defaultBind:    pb,
		filter:         filter,
		frontmostFunc:  frontmostProcessName,
		frontmostCache: expirable.NewLRU[string, string](1, nil, frontmostCacheTTL),
		readClipboard:  clipboard.ReadAll,
		writeClipboard: clipboard.WriteAll,
	}
	inj.dispatchFunc = inj.dispatch
	return inj, nil
}

// Paste runs the full save/write/paste/restore sequence for text, using
// binding (falling back to the injector's default on parse or dispatch
// failure, §4.10 "Failure policy").
func (inj *Injector) Paste(text, binding string) error {
	if inj.filter != nil {
		if name := inj.cachedFrontmost(); name != "" && inj.filter.Blocked(name) {
			inj.lg.Debugf("inject: skipping paste, %q is denylisted", name)
			return nil
		}
	}

	pb := inj.defaultBind
	usedFallback := false
	if binding != "" {
		if parsed, err := hotkey.Parse(binding); err == nil {
			pb = parsed
		} else {
			inj.lg.Warnf("inject: paste binding %q failed to parse, using default: %v", binding, err)
			usedFallback = true
		}
	}

	saved, haveSaved := "", false
	if s, err := inj.readClipboard(); err == nil {
		saved = s
		haveSaved = true
	}

	if err := inj.writeClipboard(text); err != nil {
		return fmt.Errorf("%w: clipboard write: %v", ErrPasteFailed, err)
	}

	time.Sleep(preSettleDelay)

	if err := inj.dispatchFunc(pb); err != nil {
		if !usedFallback {
			inj.lg.Warnf("inject: paste binding dispatch failed, retrying with default: %v", err)
			if err2 := inj.dispatchFunc(inj.defaultBind); err2 != nil {
				return fmt.Errorf("%w: %v", ErrPasteFailed, err2)
			}
		} else {
			return fmt.Errorf("%w: %v", ErrPasteFailed, err)
		}
	}

	time.Sleep(postPasteDelay)

	if haveSaved {
		if err := inj.writeClipboard(saved); err != nil {
			return fmt.Errorf("%w: clipboard restore: %v", ErrPasteFailed, err)
		}
	}
	return nil
}

// cachedFrontmost returns the frontmost process name, reusing a recent
// lookup within frontmostCacheTTL instead of re-invoking frontmostFunc.
func (inj *Injector) cachedFrontmost() string {
	if name, ok := inj.frontmostCache.Get(frontmostCacheKey); ok {
		return name
	}
	name := inj.frontmostFunc()
	inj.frontmostCache.Add(frontmostCacheKey, name)
	return name
}

func (inj *Injector) dispatch(pb hotkey.ParsedBinding) error {
	combo := gohookCombo(pb)
	if !gohook.AddEvent(combo) {
		return fmt.Errorf("key synthesis failed for %q", combo)
	}
	return nil
}

// gohookCombo renders a ParsedBinding into the "+"-joined key-name string
// gohook.AddEvent expects.
func gohookCombo(pb hotkey.ParsedBinding) string {
	var parts []string
	if pb.Mods.Meta {
		parts = append(parts, "cmd")
	}
	if pb.Mods.Ctrl {
		parts = append(parts, "ctrl")
	}
	if pb.Mods.Alt {
		parts = append(parts, "alt")
	}
	if pb.Mods.Shift {
		parts = append(parts, "shift")
	}

	switch pb.Kind {
	case hotkey.KeyNamed:
		parts = append(parts, pb.Named)
	case hotkey.KeyLiteral:
		parts = append(parts, string(pb.Literal))
	case hotkey.KeyUnicode:
		parts = append(parts, string(pb.Rune))
	case hotkey.KeyCode:
		parts = append(parts, fmt.Sprintf("%d", pb.Code))
	}

	s := parts[0]
	for _, p := range parts[1:] {
		s += "+" + p
	}
	return s
}

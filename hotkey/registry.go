// hotkey/registry.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hotkey

import (
	"fmt"
	"sync"
	"unicode"

	oshotkey "golang.design/x/hotkey"

	"github.com/scribehq/scribe/config"
	"github.com/scribehq/scribe/log"
)

// namedKeyCodes maps the §6 named-key vocabulary onto golang.design/x/hotkey
// key constants. Only keys with a direct cross-platform constant are
// listed; anything else must be expressed as keycode:<n> or unicode:<r>.
var namedKeyCodes = map[string]oshotkey.Key{
	"space":      oshotkey.KeySpace,
	"enter":      oshotkey.KeyReturn,
	"tab":        oshotkey.KeyTab,
	"escape":     oshotkey.KeyEscape,
	"comma":      oshotkey.Key(','),
	"period":     oshotkey.Key('.'),
	"slash":      oshotkey.Key('/'),
	"semicolon":  oshotkey.Key(';'),
	"minus":      oshotkey.Key('-'),
	"equal":      oshotkey.Key('='),
	"backtick":   oshotkey.Key('`'),
	"apostrophe": oshotkey.Key('\''),
}

// Registry owns the live OS-level global hotkey registrations and forwards
// their keydown/keyup events into a Dispatcher (§4.9 "OS hotkeys").
// golang.design/x/hotkey requires each registration to be unregistered
// before process exit; Registry tracks everything it opened so Close can
// tear it all down.
type Registry struct {
	lg   *log.Logger
	d    *Dispatcher
	stop chan struct{}

	mu    sync.Mutex
	hooks []*oshotkey.Hotkey
}

func NewRegistry(lg *log.Logger, d *Dispatcher) *Registry {
	return &Registry{lg: lg, d: d, stop: make(chan struct{})}
}

// Register translates binding's hotkey string into a platform registration
// and starts forwarding its keydown/keyup events to the dispatcher. It
// must run on the OS main thread on Windows/Linux; callers typically run
// the whole startup sequence under golang.design/x/hotkey/mainthread.Init.
func (r *Registry) Register(binding config.Binding) error {
	pb, err := Parse(binding.HotkeyString)
	if err != nil {
		return fmt.Errorf("hotkey: registering %q: %w", binding.ID, err)
	}

	key, ok := resolveKey(pb)
	if !ok {
		return fmt.Errorf("hotkey: %q has no platform key mapping", binding.HotkeyString)
	}

	hk := oshotkey.New(resolveModSet(pb.Mods), key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("hotkey: register %q: %w", binding.HotkeyString, err)
	}

	r.mu.Lock()
	r.hooks = append(r.hooks, hk)
	r.mu.Unlock()

	go r.forward(binding.ID, hk)
	return nil
}

func (r *Registry) forward(bindingID string, hk *oshotkey.Hotkey) {
	for {
		select {
		case <-hk.Keydown():
			r.d.OnPress(bindingID)
		case <-hk.Keyup():
			r.d.OnRelease(bindingID)
		case <-r.stop:
			return
		}
	}
}

// Close unregisters every hotkey this Registry opened.
func (r *Registry) Close() {
	close(r.stop)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, hk := range r.hooks {
		hk.Unregister()
	}
	r.hooks = nil
}

func resolveModSet(m ModifierSet) []oshotkey.Modifier {
	var mods []oshotkey.Modifier
	if m.Meta {
		mods = append(mods, oshotkey.ModMeta)
	}
	if m.Ctrl {
		mods = append(mods, oshotkey.ModCtrl)
	}
	if m.Alt {
		mods = append(mods, oshotkey.ModOption)
	}
	if m.Shift {
		mods = append(mods, oshotkey.ModShift)
	}
	return mods
}

func resolveKey(pb ParsedBinding) (oshotkey.Key, bool) {
	switch pb.Kind {
	case KeyNamed:
		k, ok := namedKeyCodes[pb.Named]
		return k, ok
	case KeyLiteral:
		return literalKey(pb.Literal)
	case KeyUnicode:
		return literalKey(pb.Rune)
	case KeyCode:
		return oshotkey.Key(pb.Code), true
	default:
		return 0, false
	}
}

func literalKey(r rune) (oshotkey.Key, bool) {
	u := unicode.ToUpper(r)
	if u >= 'A' && u <= 'Z' {
		return oshotkey.Key(u), true
	}
	if u >= '0' && u <= '9' {
		return oshotkey.Key(u), true
	}
	return 0, false
}

// inject/injector_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package inject

import (
	"errors"
	"testing"

	"github.com/scribehq/scribe/hotkey"
	"github.com/scribehq/scribe/log"
)

func newTestInjector(t *testing.T) *Injector {
	t.Helper()
	lg := log.New(false, "error", t.TempDir())
	inj, err := New(lg, "cmd+v", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return inj
}

func TestPasteSaveWriteRestore(t *testing.T) {
	inj := newTestInjector(t)

	clip := "previous clipboard contents"
	var written []string
	var dispatched []hotkey.ParsedBinding

	inj.readClipboard = func() (string, error) { return clip, nil }
	inj.writeClipboard = func(s string) error { written = append(written, s); return nil }
	inj.dispatchFunc = func(pb hotkey.ParsedBinding) error { dispatched = append(dispatched, pb); return nil }

	if err := inj.Paste("new text", ""); err != nil {
		t.Fatalf("Paste: %v", err)
	}

	if len(written) != 2 {
		t.Fatalf("expected two clipboard writes (new text, restore), got %v", written)
	}
	if written[0] != "new text" {
		t.Fatalf("first write should be the pasted text, got %q", written[0])
	}
	if written[1] != clip {
		t.Fatalf("second write should restore the saved clipboard, got %q", written[1])
	}
	if len(dispatched) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(dispatched))
	}
	if dispatched[0] != inj.defaultBind {
		t.Fatalf("expected dispatch with default binding, got %+v", dispatched[0])
	}
}

func TestPasteUsesExplicitBinding(t *testing.T) {
	inj := newTestInjector(t)

	inj.readClipboard = func() (string, error) { return "", errors.New("empty") }
	inj.writeClipboard = func(string) error { return nil }
	var dispatched []hotkey.ParsedBinding
	inj.dispatchFunc = func(pb hotkey.ParsedBinding) error { dispatched = append(dispatched, pb); return nil }

	if err := inj.Paste("text", "ctrl+shift+v"); err != nil {
		t.Fatalf("Paste: %v", err)
	}

	want, _ := hotkey.Parse("ctrl+shift+v")
	if len(dispatched) != 1 || dispatched[0] != want {
		t.Fatalf("expected dispatch with explicit binding %+v, got %v", want, dispatched)
	}
}

func TestPasteFallsBackToDefaultOnDispatchFailure(t *testing.T) {
	inj := newTestInjector(t)

	inj.readClipboard = func() (string, error) { return "", errors.New("empty") }
	inj.writeClipboard = func(string) error { return nil }

	var dispatched []hotkey.ParsedBinding
	inj.dispatchFunc = func(pb hotkey.ParsedBinding) error {
		dispatched = append(dispatched, pb)
		if pb == inj.defaultBind {
			return nil
		}
		return errors.New("synthesis failed")
	}

	if err := inj.Paste("text", "ctrl+shift+v"); err != nil {
		t.Fatalf("Paste should succeed after falling back to default: %v", err)
	}
	if len(dispatched) != 2 {
		t.Fatalf("expected explicit binding attempt then default fallback, got %v", dispatched)
	}
	if dispatched[1] != inj.defaultBind {
		t.Fatalf("second dispatch should use the default binding")
	}
}

func TestPasteSkippedWhenDenylisted(t *testing.T) {
	inj := newTestInjector(t)
	inj.filter = NewDenylistFilter([]string{"1password"})
	inj.frontmostFunc = func() string { return "1Password 7" }

	wrote := false
	inj.writeClipboard = func(string) error { wrote = true; return nil }
	inj.readClipboard = func() (string, error) { return "", nil }
	inj.dispatchFunc = func(hotkey.ParsedBinding) error { return nil }

	if err := inj.Paste("secret", ""); err != nil {
		t.Fatalf("Paste: %v", err)
	}
	if wrote {
		t.Fatalf("expected paste to be skipped entirely for a denylisted process")
	}
}

func TestPasteClipboardWriteError(t *testing.T) {
	inj := newTestInjector(t)
	inj.readClipboard = func() (string, error) { return "", nil }
	inj.writeClipboard = func(string) error { return errors.New("clipboard busy") }
	inj.dispatchFunc = func(hotkey.ParsedBinding) error { return nil }

	err := inj.Paste("text", "")
	if err == nil || !errors.Is(err, ErrPasteFailed) {
		t.Fatalf("expected ErrPasteFailed, got %v", err)
	}
}

func TestDenylistFilterCaseInsensitive(t *testing.T) {
	f := NewDenylistFilter([]string{"Terminal", "1Password"})

	if !f.Blocked("Apple Terminal") {
		t.Fatalf("expected 'Apple Terminal' to match 'Terminal' case-insensitively")
	}
	if !f.Blocked("1password 8") {
		t.Fatalf("expected '1password 8' to match '1Password'")
	}
	if f.Blocked("Safari") {
		t.Fatalf("did not expect 'Safari' to be blocked")
	}
}

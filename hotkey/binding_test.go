// hotkey/binding_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hotkey

import "testing"

func TestParseNamedKey(t *testing.T) {
	pb, err := Parse("ctrl+shift+space")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !pb.Mods.Ctrl || !pb.Mods.Shift || pb.Mods.Meta || pb.Mods.Alt {
		t.Fatalf("unexpected modifiers: %+v", pb.Mods)
	}
	if pb.Kind != KeyNamed || pb.Named != "space" {
		t.Fatalf("expected named key 'space', got %+v", pb)
	}
}

func TestParseLiteral(t *testing.T) {
	pb, err := Parse("cmd+v")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !pb.Mods.Meta {
		t.Fatalf("expected meta modifier")
	}
	if pb.Kind != KeyLiteral || pb.Literal != 'v' {
		t.Fatalf("expected literal 'v', got %+v", pb)
	}
}

func TestParseKeycode(t *testing.T) {
	pb, err := Parse("alt+keycode:0x41")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pb.Kind != KeyCode || pb.Code != 0x41 {
		t.Fatalf("expected keycode 0x41, got %+v", pb)
	}
}

func TestParseUnicode(t *testing.T) {
	pb, err := Parse(`shift+unicode:\u{e9}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pb.Kind != KeyUnicode || pb.Rune != 0xe9 {
		t.Fatalf("expected unicode 0xe9, got %+v", pb)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"ctrl+",
		"ctrl+shift+a+b",
		"ctrl+keycode:zz",
		"ctrl+unicode:ab",
		"ctrl+nonsense_key_name",
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", c)
		}
	}
}

// TestRoundTrip checks the §8 property: parse(stringify(parse(s))) == parse(s).
func TestRoundTrip(t *testing.T) {
	cases := []string{
		"ctrl+shift+space",
		"cmd+v",
		"alt+keycode:65",
		"meta+ctrl+alt+shift+enter",
		"escape",
	}
	for _, s := range cases {
		pb, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		reparsed, err := Parse(pb.String())
		if err != nil {
			t.Fatalf("Parse(stringify(Parse(%q))) = %q: %v", s, pb.String(), err)
		}
		if reparsed != pb {
			t.Errorf("round-trip mismatch for %q: got %+v, want %+v", s, reparsed, pb)
		}
	}
}

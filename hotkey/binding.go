// hotkey/binding.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package hotkey parses the §6 binding-string grammar and dispatches
// global hotkey press/release events with push-to-talk and toggle
// semantics (§4.9).
package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBindingParse is returned for any malformed binding string; it wraps a
// structured description of the offending token (§7 "BindingParseError").
var ErrBindingParse = errors.New("hotkey: invalid binding string")

type ModifierSet struct {
	Meta  bool
	Ctrl  bool
	Alt   bool
	Shift bool
}

// KeyKind distinguishes the non-modifier token's shape.
type KeyKind int

const (
	KeyNamed KeyKind = iota
	KeyLiteral
	KeyCode
	KeyUnicode
)

// ParsedBinding is the structured result of parsing a binding string.
type ParsedBinding struct {
	Mods ModifierSet
	Kind KeyKind
	// Named holds the canonical name for KeyNamed ("space", "enter", ...).
	Named string
	// Literal holds the single literal character for KeyLiteral.
	Literal rune
	// Code holds the raw platform keycode for KeyCode.
	Code uint32
	// Rune holds the decoded character for KeyUnicode.
	Rune rune
}

var namedKeys = map[string]string{
	"space": "space",
	"enter": "enter", "return": "enter",
	"tab": "tab",
	"escape": "escape", "esc": "escape",
	"comma": "comma",
	"period": "period", "dot": "period",
	"slash":     "slash",
	"backslash": "backslash",
	"semicolon": "semicolon",
	"apostrophe": "apostrophe", "quote": "apostrophe",
	"backtick": "backtick", "grave": "backtick",
	"minus": "minus", "dash": "minus",
	"equal": "equal", "equals": "equal",
}

// Parse parses a binding string per the §6 grammar: tokens joined by '+',
// case-insensitive, at most one non-modifier token.
func Parse(s string) (ParsedBinding, error) {
	raw := s
	tokens := strings.Split(s, "+")
	if len(tokens) == 0 || (len(tokens) == 1 && strings.TrimSpace(tokens[0]) == "") {
		return ParsedBinding{}, fmt.Errorf("%w: empty binding", ErrBindingParse)
	}

	var pb ParsedBinding
	haveKey := false

	for _, tok := range tokens {
		t := strings.ToLower(strings.TrimSpace(tok))
		if t == "" {
			return ParsedBinding{}, fmt.Errorf("%w: empty token in %q", ErrBindingParse, raw)
		}

		switch t {
		case "meta", "command", "cmd", "super":
			pb.Mods.Meta = true
			continue
		case "control", "ctrl":
			pb.Mods.Ctrl = true
			continue
		case "option", "alt":
			pb.Mods.Alt = true
			continue
		case "shift":
			pb.Mods.Shift = true
			continue
		}

		if haveKey {
			return ParsedBinding{}, fmt.Errorf("%w: more than one non-modifier token in %q (%q)", ErrBindingParse, raw, tok)
		}

		switch canonical, named := namedKeys[t]; {
		case named:
			pb.Kind = KeyNamed
			pb.Named = canonical
		case strings.HasPrefix(t, "keycode:"):
			v := strings.TrimPrefix(t, "keycode:")
			n, err := parseIntAuto(v)
			if err != nil {
				return ParsedBinding{}, fmt.Errorf("%w: bad keycode %q in %q", ErrBindingParse, tok, raw)
			}
			pb.Kind = KeyCode
			pb.Code = uint32(n)
		case strings.HasPrefix(t, "unicode:"):
			v := strings.TrimPrefix(t, "unicode:")
			r, err := parseUnicodeToken(v)
			if err != nil {
				return ParsedBinding{}, fmt.Errorf("%w: bad unicode token %q in %q", ErrBindingParse, tok, raw)
			}
			pb.Kind = KeyUnicode
			pb.Rune = r
		case len([]rune(t)) == 1:
			pb.Kind = KeyLiteral
			pb.Literal = []rune(t)[0]
		default:
			return ParsedBinding{}, fmt.Errorf("%w: unrecognized token %q in %q", ErrBindingParse, tok, raw)
		}
		haveKey = true
	}

	if !haveKey {
		return ParsedBinding{}, fmt.Errorf("%w: no key token in %q", ErrBindingParse, raw)
	}
	return pb, nil
}

func parseIntAuto(v string) (int64, error) {
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		return strconv.ParseInt(v[2:], 16, 64)
	}
	return strconv.ParseInt(v, 10, 64)
}

func parseUnicodeToken(v string) (rune, error) {
	if strings.HasPrefix(v, `\u{`) && strings.HasSuffix(v, "}") {
		hex := v[3 : len(v)-1]
		n, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return 0, err
		}
		return rune(n), nil
	}
	rs := []rune(v)
	if len(rs) != 1 {
		return 0, fmt.Errorf("expected a single character, got %q", v)
	}
	return rs[0], nil
}

// String reconstructs a canonical binding string from a parsed binding,
// used by the §8 round-trip property: parse(stringify(parse(s))) == parse(s).
func (pb ParsedBinding) String() string {
	var parts []string
	if pb.Mods.Meta {
		parts = append(parts, "meta")
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
	case KeyNamed:
		parts = append(parts, pb.Named)
	case KeyLiteral:
		parts = append(parts, string(pb.Literal))
	case KeyCode:
		parts = append(parts, fmt.Sprintf("keycode:%d", pb.Code))
	case KeyUnicode:
		parts = append(parts, fmt.Sprintf(`unicode:\u{%04X}`, pb.Rune))
	}
	return strings.Join(parts, "+")
}

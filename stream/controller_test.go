// stream/controller_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package stream

import "testing"

func TestPauseDetectorRisingEdgeOnly(t *testing.T) {
	p := NewPauseDetector(90) // 3 frames at frameMs=30

	// No speech seen yet: silence frames never fire.
	for i := 0; i < 5; i++ {
		if p.OnFrame(false) {
			t.Fatalf("frame %d: should not fire before any speech seen", i)
		}
	}

	p.OnFrame(true) // speech resets the silence run

	if p.OnFrame(false) || p.OnFrame(false) {
		t.Fatalf("should not fire before threshold frame count reached")
	}
	if !p.OnFrame(false) {
		t.Fatalf("should fire on the 3rd consecutive silence frame")
	}
	// Only a rising edge: continued silence does not re-fire.
	if p.OnFrame(false) {
		t.Fatalf("should not re-fire while silence continues")
	}

	// A new speech burst re-arms the detector.
	p.OnFrame(true)
	if p.OnFrame(false) || p.OnFrame(false) {
		t.Fatalf("should not fire before threshold after re-arming")
	}
	if !p.OnFrame(false) {
		t.Fatalf("should fire again after a fresh silence run")
	}
}

type fakeBackspacer struct {
	sent []int
}

func (f *fakeBackspacer) SendBackspaces(n int) error {
	f.sent = append(f.sent, n)
	return nil
}

type fakePaster struct {
	pasted []string
}

func (f *fakePaster) Paste(text, binding string) error {
	f.pasted = append(f.pasted, text)
	return nil
}

func TestTextReplacerReplaceAll(t *testing.T) {
	bs := &fakeBackspacer{}
	pa := &fakePaster{}
	tr := NewTextReplacer(bs, pa, "")

	if err := tr.ReplaceAll("hello"); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if len(bs.sent) != 0 {
		t.Fatalf("first ReplaceAll should not backspace anything, got %v", bs.sent)
	}
	if tr.TotalCharsShown() != len("hello") {
		t.Fatalf("TotalCharsShown = %d, want %d", tr.TotalCharsShown(), len("hello"))
	}

	if err := tr.ReplaceAll("hello world"); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if len(bs.sent) != 1 || bs.sent[0] != len("hello") {
		t.Fatalf("expected one backspace call for %d chars, got %v", len("hello"), bs.sent)
	}
	if pa.pasted[len(pa.pasted)-1] != "hello world" {
		t.Fatalf("expected final paste to be the new text")
	}
	if tr.TotalCharsShown() != len("hello world") {
		t.Fatalf("TotalCharsShown = %d, want %d", tr.TotalCharsShown(), len("hello world"))
	}
}

func TestTextReplacerAppendAndReset(t *testing.T) {
	bs := &fakeBackspacer{}
	pa := &fakePaster{}
	tr := NewTextReplacer(bs, pa, "")

	tr.Append("abc")
	tr.Append("def")
	if tr.TotalCharsShown() != 6 {
		t.Fatalf("TotalCharsShown = %d, want 6", tr.TotalCharsShown())
	}
	if len(bs.sent) != 0 {
		t.Fatalf("Append should never backspace, got %v", bs.sent)
	}

	tr.Reset()
	if tr.TotalCharsShown() != 0 {
		t.Fatalf("TotalCharsShown after Reset = %d, want 0", tr.TotalCharsShown())
	}
}

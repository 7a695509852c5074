// audio/vad_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import "testing"

// scriptedDetector returns a fixed sequence of speech probabilities, one
// per OnFrame call, then 0 forever after the script is exhausted.
type scriptedDetector struct {
	probs []float64
	i     int
}

func (d *scriptedDetector) SpeechProb(frame []float32) (float64, error) {
	if d.i >= len(d.probs) {
		return 0, nil
	}
	p := d.probs[d.i]
	d.i++
	return p, nil
}

func (d *scriptedDetector) Close() error { return nil }

func frame(n int) []float32 {
	f := make([]float32, n)
	for i := range f {
		f[i] = float32(n) // distinguishes frames by content for assertions
	}
	return f
}

func testGateParams() GateParams {
	return GateParams{
		Threshold:          0.5,
		OpenAfterNSpeech:   2,
		CloseAfterNSilence: 2,
		PrefillFrames:      1,
	}
}

func TestGateOpensOnSustainedSpeech(t *testing.T) {
	d := &scriptedDetector{probs: []float64{0.9, 0.9}}
	g := NewGate(d, testGateParams())

	isSpeech, gated, err := g.OnFrame(frame(1))
	if err != nil {
		t.Fatalf("OnFrame: %v", err)
	}
	if isSpeech || g.IsOpen() {
		t.Fatalf("gate should not open before OpenAfterNSpeech frames")
	}
	if gated != nil {
		t.Fatalf("expected no gated output before opening")
	}

	isSpeech, gated, err = g.OnFrame(frame(2))
	if err != nil {
		t.Fatalf("OnFrame: %v", err)
	}
	if !isSpeech || !g.IsOpen() {
		t.Fatalf("expected gate to open on the 2nd consecutive speech frame")
	}
	if !g.HasSeenSpeech() {
		t.Fatalf("expected HasSeenSpeech true after opening")
	}
	if gated == nil {
		t.Fatalf("expected pre-roll to be emitted on the rising edge")
	}
}

func TestGateClosesAfterSustainedSilenceWithMargin(t *testing.T) {
	d := &scriptedDetector{probs: []float64{0.9, 0.9, 0.1, 0.1}}
	g := NewGate(d, testGateParams())

	g.OnFrame(frame(1))
	g.OnFrame(frame(2)) // opens

	isSpeech, gated, err := g.OnFrame(frame(3))
	if err != nil {
		t.Fatalf("OnFrame: %v", err)
	}
	if isSpeech {
		t.Fatalf("silence frame should not be reported as speech")
	}
	if gated != nil {
		t.Fatalf("gate should still be open, no closing output expected yet")
	}

	isSpeech, gated, err = g.OnFrame(frame(4))
	if err != nil {
		t.Fatalf("OnFrame: %v", err)
	}
	if isSpeech || g.IsOpen() {
		t.Fatalf("expected gate to close on the 2nd consecutive silence frame")
	}
	// PrefillFrames=1: only the oldest of the two trailing silence frames
	// is retained as the margin (frame 3, of length 3), frame 4 is dropped.
	if len(gated) != 3 {
		t.Fatalf("expected the retained margin frame (len 3), got len %d", len(gated))
	}
}

func TestGateResetClearsState(t *testing.T) {
	d := &scriptedDetector{probs: []float64{0.9, 0.9}}
	g := NewGate(d, testGateParams())

	g.OnFrame(frame(1))
	g.OnFrame(frame(2))
	if !g.IsOpen() || !g.HasSeenSpeech() {
		t.Fatalf("precondition: gate should be open and have seen speech")
	}

	g.Reset()
	if g.IsOpen() || g.HasSeenSpeech() {
		t.Fatalf("expected Reset to clear both IsOpen and HasSeenSpeech")
	}
}

func TestGateSpeechCountResetsOnIntermittentSilence(t *testing.T) {
	// speech, silence, speech, speech: the silence frame must reset the
	// consecutive-speech counter, so the gate needs two speech frames in a
	// row after the reset to actually open.
	d := &scriptedDetector{probs: []float64{0.9, 0.1, 0.9, 0.9}}
	g := NewGate(d, testGateParams())

	g.OnFrame(frame(1)) // speech count 1
	g.OnFrame(frame(1)) // silence resets count to 0
	_, _, _ = g.OnFrame(frame(1))
	if g.IsOpen() {
		t.Fatalf("gate should not yet be open after only one fresh speech frame")
	}
	_, _, _ = g.OnFrame(frame(1))
	if !g.IsOpen() {
		t.Fatalf("expected gate to open after two consecutive speech frames post-reset")
	}
}

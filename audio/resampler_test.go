// audio/resampler_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import "testing"

func TestResamplerBypassFraming(t *testing.T) {
	var frames [][]float32
	r, err := New(16000, 16000, 4, func(frame []float32) {
		cp := make([]float32, len(frame))
		copy(cp, frame)
		frames = append(frames, cp)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r.Write([]float32{1, 2, 3, 4, 5, 6, 7})
	if len(frames) != 1 {
		t.Fatalf("expected exactly one complete frame emitted, got %d", len(frames))
	}
	want := []float32{1, 2, 3, 4}
	for i, v := range want {
		if frames[0][i] != v {
			t.Errorf("frames[0][%d] = %v, want %v", i, frames[0][i], v)
		}
	}

	r.Write([]float32{8, 9})
	if len(frames) != 2 {
		t.Fatalf("expected second frame after enough samples accumulate, got %d", len(frames))
	}
	want2 := []float32{5, 6, 7, 8}
	for i, v := range want2 {
		if frames[1][i] != v {
			t.Errorf("frames[1][%d] = %v, want %v", i, frames[1][i], v)
		}
	}
}

func TestResamplerFinishZeroPadsResidual(t *testing.T) {
	var frames [][]float32
	r, err := New(16000, 16000, 4, func(frame []float32) {
		cp := make([]float32, len(frame))
		copy(cp, frame)
		frames = append(frames, cp)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r.Write([]float32{1, 2})
	if len(frames) != 0 {
		t.Fatalf("expected no frame yet, got %d", len(frames))
	}

	r.Finish()
	if len(frames) != 1 {
		t.Fatalf("expected Finish to flush the residual as a zero-padded frame, got %d", len(frames))
	}
	want := []float32{1, 2, 0, 0}
	for i, v := range want {
		if frames[0][i] != v {
			t.Errorf("frames[0][%d] = %v, want %v", i, frames[0][i], v)
		}
	}
}

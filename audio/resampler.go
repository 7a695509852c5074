// audio/resampler.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import (
	resample "github.com/tphakala/go-audio-resampler"
)

// chunkSamples is the fixed input chunk size fed to the FFT resampler.
// Fixed-size chunks give deterministic allocation and keep resampling
// cheap enough to run on the capture callback thread.
const chunkSamples = 1024

// Resampler converts arbitrary-length input buffers at rate InRate into
// fixed-size frames of FrameSamples at rate OutRate, delivered to a
// callback in order. When InRate == OutRate it bypasses resampling
// entirely and just frames the input.
type Resampler struct {
	inRate, outRate int
	frameSamples    int
	emit            func(frame []float32)

	bypass  bool
	backend *resample.Resampler

	chunk    []float32 // accumulates input up to chunkSamples
	chunkLen int
	pending  []float32 // resampled output awaiting framing into frameSamples chunks
}

// New builds a Resampler. frameSamples is the fixed output frame size (F);
// the canonical VAD frame is 480 samples (30 ms at 16 kHz).
func New(inRate, outRate, frameSamples int, emit func(frame []float32)) (*Resampler, error) {
	r := &Resampler{
		inRate:       inRate,
		outRate:      outRate,
		frameSamples: frameSamples,
		emit:         emit,
		bypass:       inRate == outRate,
		chunk:        make([]float32, chunkSamples),
	}
	if !r.bypass {
		be, err := resample.New(inRate, outRate, 1 /* mono */)
		if err != nil {
			return nil, err
		}
		r.backend = be
	}
	return r, nil
}

// Write feeds more input samples (already mono) into the resampler,
// emitting every whole output frame it completes along the way.
func (r *Resampler) Write(in []float32) {
	if r.bypass {
		r.pending = append(r.pending, in...)
		r.flushFrames()
		return
	}

	for len(in) > 0 {
		n := copy(r.chunk[r.chunkLen:chunkSamples], in)
		r.chunkLen += n
		in = in[n:]

		if r.chunkLen == chunkSamples {
			r.processChunk(r.chunk)
			r.chunkLen = 0
		}
	}
}

// Finish drains any partial input chunk (zero-padded) and any residual
// output (also zero-padded to a full frame), emitting a final frame if
// there is anything left to emit. Call once, when the input stream ends.
func (r *Resampler) Finish() {
	if r.chunkLen > 0 && !r.bypass {
		for i := r.chunkLen; i < chunkSamples; i++ {
			r.chunk[i] = 0
		}
		r.processChunk(r.chunk)
		r.chunkLen = 0
	}

	if len(r.pending) > 0 {
		final := make([]float32, r.frameSamples)
		copy(final, r.pending)
		r.pending = r.pending[:0]
		r.emit(final)
	}
}

func (r *Resampler) processChunk(chunk []float32) {
	out, err := r.backend.Process(chunk)
	if err != nil {
		// The backend only fails on misconfiguration (rate <= 0), which New
		// would already have rejected; a runtime failure here means
		// whatever samples it managed to resample are simply dropped.
		return
	}
	r.pending = append(r.pending, out...)
	r.flushFrames()
}

func (r *Resampler) flushFrames() {
	for len(r.pending) >= r.frameSamples {
		frame := make([]float32, r.frameSamples)
		copy(frame, r.pending[:r.frameSamples])
		r.pending = r.pending[r.frameSamples:]
		r.emit(frame)
	}
}

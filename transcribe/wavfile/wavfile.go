// transcribe/wavfile/wavfile.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package wavfile persists recordings to disk as mono 16 kHz 16-bit PCM,
// little-endian (§6 "Audio file format for persistence"). It deliberately
// does not apply the model's minimum-duration padding: that floor exists
// only to satisfy the transcription backend, not the on-disk artifact.
package wavfile

import (
	"errors"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const SampleRate = 16000

// Write encodes mono float32 samples in [-1, 1] to path as a 16-bit PCM
// WAV file. An empty samples slice still produces a valid, empty WAV.
func Write(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		ints[i] = int(v)
	}

	buf := &goaudio.IntBuffer{
		Data:           ints,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// Read decodes a mono 16 kHz 16-bit PCM WAV file back to float32 samples
// in [-1, 1]. It rejects files that aren't already at the target format;
// use autowhisper.ReadWavAsFloat32Mono16k for arbitrary-format input.
func Read(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, errors.New("wavfile: empty decode result")
	}
	if dec.NumChans != 1 || int(dec.SampleRate) != SampleRate {
		return nil, errors.New("wavfile: not mono 16kHz PCM")
	}

	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}

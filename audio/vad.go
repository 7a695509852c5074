// audio/vad.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import (
	"errors"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Detector returns a per-frame speech probability in [0, 1]. The canonical
// implementation wraps a Silero-class ONNX model at 16 kHz; tests substitute
// a small hand-written fake.
type Detector interface {
	SpeechProb(frame []float32) (float64, error)
	Close() error
}

// SileroDetector runs a Silero voice-activity model via onnxruntime.
type SileroDetector struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	state   *ort.Tensor[float32] // LSTM/GRU recurrent state, carried across frames
	sr      *ort.Tensor[int64]
}

// NewSileroDetector loads a Silero VAD ONNX model from modelPath. Callers
// must call ort.SetSharedLibraryPath and ort.InitializeEnvironment once at
// process startup before constructing a detector.
func NewSileroDetector(modelPath string, frameSamples int) (*SileroDetector, error) {
	inputShape := ort.NewShape(1, int64(frameSamples))
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, err
	}

	stateShape := ort.NewShape(2, 1, 128)
	state, err := ort.NewEmptyTensor[float32](stateShape)
	if err != nil {
		input.Destroy()
		return nil, err
	}

	sr, err := ort.NewTensor(ort.NewShape(1), []int64{16000})
	if err != nil {
		input.Destroy()
		state.Destroy()
		return nil, err
	}

	outputShape := ort.NewShape(1, 1)
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		state.Destroy()
		sr.Destroy()
		return nil, err
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input", "sr", "state"},
		[]string{"output", "stateN"},
		[]ort.Value{input, sr, state},
		[]ort.Value{output, state},
		nil)
	if err != nil {
		input.Destroy()
		state.Destroy()
		sr.Destroy()
		output.Destroy()
		return nil, err
	}

	return &SileroDetector{
		session: session,
		input:   input,
		output:  output,
		state:   state,
		sr:      sr,
	}, nil
}

func (d *SileroDetector) SpeechProb(frame []float32) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	copy(d.input.GetData(), frame)
	if err := d.session.Run(); err != nil {
		return 0, err
	}
	out := d.output.GetData()
	if len(out) == 0 {
		return 0, errors.New("vad: empty model output")
	}
	return float64(out[0]), nil
}

func (d *SileroDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.Destroy()
	d.input.Destroy()
	d.output.Destroy()
	d.state.Destroy()
	d.sr.Destroy()
	return nil
}

// GateParams controls the hysteresis smoothing described in §4.2.
type GateParams struct {
	Threshold          float64
	OpenAfterNSpeech   int
	CloseAfterNSilence int
	PrefillFrames      int
}

// DefaultGateParams matches the values tuned into the default config.
func DefaultGateParams() GateParams {
	return GateParams{
		Threshold:          0.3,
		OpenAfterNSpeech:   15,
		CloseAfterNSilence: 15,
		PrefillFrames:      2,
	}
}

// Gate turns a raw per-frame speech probability into a smoothed
// open/closed decision with pre-roll retention, per §4.2/§3 "VAD state".
type Gate struct {
	detector Detector
	params   GateParams

	open          bool
	hasSeenSpeech bool
	speechCount   int
	silenceCount  int

	preroll [][]float32 // ring of the last PrefillFrames frames while closed
	tail    [][]float32 // provisional silence frames accumulated while open, not yet released
}

func NewGate(detector Detector, params GateParams) *Gate {
	return &Gate{detector: detector, params: params}
}

// Reset clears all hysteresis and buffering state, e.g. at the start of a
// new recording.
func (g *Gate) Reset() {
	g.open = false
	g.hasSeenSpeech = false
	g.speechCount = 0
	g.silenceCount = 0
	g.preroll = nil
	g.tail = nil
}

// OnFrame processes one 30 ms frame and returns whether it judged the
// frame to contain speech and the samples (if any) that should now be
// appended to the recorder's gated accumulation buffer.
func (g *Gate) OnFrame(frame []float32) (isSpeech bool, gated []float32, err error) {
	prob, err := g.detector.SpeechProb(frame)
	if err != nil {
		return false, nil, err
	}
	speech := prob >= g.params.Threshold

	if !g.open {
		g.pushPreroll(frame)

		if speech {
			g.speechCount++
		} else {
			g.speechCount = 0
		}

		if g.speechCount < g.params.OpenAfterNSpeech {
			return false, nil, nil
		}

		// Rising edge: gate opens, emit the retained pre-roll.
		g.open = true
		g.hasSeenSpeech = true
		g.silenceCount = 0
		out := flatten(g.preroll)
		g.preroll = nil
		return true, out, nil
	}

	if speech {
		g.silenceCount = 0
		if len(g.tail) > 0 {
			out := flatten(append(g.tail, frame))
			g.tail = nil
			return true, out, nil
		}
		return true, frame, nil
	}

	g.silenceCount++
	g.tail = append(g.tail, clone(frame))

	if g.silenceCount < g.params.CloseAfterNSilence {
		return false, nil, nil
	}

	// Falling edge: gate closes. Keep only the configured pre-roll margin
	// of trailing silence and drop the rest.
	g.open = false
	g.speechCount = 0
	margin := g.tail
	if len(margin) > g.params.PrefillFrames {
		margin = margin[:g.params.PrefillFrames]
	}
	out := flatten(margin)
	g.tail = nil
	return false, out, nil
}

// HasSeenSpeech reports whether the gate has opened at least once since
// the last Reset. The streaming pause detector must never fire before
// this is true.
func (g *Gate) HasSeenSpeech() bool {
	return g.hasSeenSpeech
}

// IsOpen reports the current gate state.
func (g *Gate) IsOpen() bool {
	return g.open
}

func (g *Gate) pushPreroll(frame []float32) {
	g.preroll = append(g.preroll, clone(frame))
	if len(g.preroll) > g.params.PrefillFrames {
		g.preroll = g.preroll[len(g.preroll)-g.params.PrefillFrames:]
	}
}

func clone(frame []float32) []float32 {
	c := make([]float32, len(frame))
	copy(c, frame)
	return c
}

func flatten(frames [][]float32) []float32 {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	if n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}

// audio/recorder.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

// typedef unsigned char uint8;
// void audioInputCallback(void *userdata, uint8 *stream, int len);
import "C"

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"unsafe"

	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/util"
	"github.com/veandco/go-sdl2/sdl"
)

// TargetSampleRate is the rate every frame emitted downstream is resampled
// to, per the §3 audio frame invariant.
const TargetSampleRate = 16000

// FrameSamples is the canonical 30 ms VAD frame size at TargetSampleRate.
const FrameSamples = 480

var (
	ErrDeviceUnavailable = errors.New("audio: no input device available")
	ErrCaptureFailed     = errors.New("audio: capture device error")
)

// LevelEvent carries a per-frame RMS/peak pair for UI meters.
type LevelEvent struct {
	RMS  float32
	Peak float32
}

// Recorder owns the OS input stream for the process's single capture
// session (§3 "Capture session"). It resamples device audio to mono
// 16 kHz, runs it through an optional VAD gate, and accumulates gated
// samples until Stop is called.
type Recorder struct {
	lg *log.Logger

	mu            sync.Mutex
	deviceID      sdl.AudioDeviceID
	deviceOpen    bool
	currentDevice string
	recording     bool
	inChannels    int
	pinner        runtime.Pinner

	resampler *Resampler
	gate      *Gate
	gated     []float32

	levelCallback    func(LevelEvent)
	vadCallback      func(isSpeech bool, frame []float32)
	feedbackCallback func(event string)

	// levelEvents decouples the capture thread from levelCallback: a slow
	// or blocking consumer must never stall the cgo audio callback, and
	// batching reduces channel overhead at 30ms-per-frame rates.
	levelEvents *util.ChunkedChan[LevelEvent]
}

// NewRecorder constructs a Recorder. gate may be nil to disable VAD gating
// entirely, in which case all resampled audio is retained.
func NewRecorder(lg *log.Logger, gate *Gate) *Recorder {
	r := &Recorder{lg: lg, gate: gate, inChannels: 1, levelEvents: util.MakeChunkedChan[LevelEvent](64)}
	go r.pumpLevelEvents()
	return r
}

// pumpLevelEvents drains batched level events off the capture thread and
// invokes the registered callback, once per event, on its own goroutine.
// Runs for the lifetime of the Recorder.
func (r *Recorder) pumpLevelEvents() {
	for batch := range r.levelEvents.Ch() {
		r.mu.Lock()
		cb := r.levelCallback
		r.mu.Unlock()
		if cb == nil {
			continue
		}
		for _, ev := range batch {
			cb(ev)
		}
	}
}

// SetLevelCallback installs a non-blocking consumer invoked with RMS/peak
// per emitted frame. Pass nil to disable.
func (r *Recorder) SetLevelCallback(cb func(LevelEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelCallback = cb
}

// SetVADCallback installs a non-blocking consumer invoked with the
// gate decision and the raw (ungated) frame for each frame, used by the streaming
// controller. Pass nil to disable.
func (r *Recorder) SetVADCallback(cb func(isSpeech bool, frame []float32)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vadCallback = cb
}

// SetFeedbackCallback installs the audio-feedback-chime hook (supplemented
// feature); it is invoked with "start", "stop", or "cancel".
func (r *Recorder) SetFeedbackCallback(cb func(event string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedbackCallback = cb
}

// Open acquires the OS input stream, selecting an explicit device by name
// or the system default if deviceName is empty.
func (r *Recorder) Open(deviceName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deviceOpen && r.currentDevice != deviceName {
		sdl.PauseAudioDevice(r.deviceID, true)
		sdl.CloseAudioDevice(r.deviceID)
		r.pinner.Unpin()
		r.deviceOpen = false
		r.lg.Infof("Closed audio device %q to switch to %q", r.currentDevice, deviceName)
	}

	if r.deviceOpen {
		return nil
	}

	user := unsafe.Pointer(r)
	r.pinner.Pin(user)
	spec := sdl.AudioSpec{
		Freq:     TargetSampleRate,
		Format:   sdl.AUDIO_S16SYS,
		Channels: 1,
		Samples:  2048,
		Callback: sdl.AudioCallback(C.audioInputCallback),
		UserData: user,
	}

	var obtained sdl.AudioSpec
	deviceID, err := sdl.OpenAudioDevice(deviceName, true, &spec, &obtained, sdl.AUDIO_ALLOW_FREQUENCY_CHANGE|sdl.AUDIO_ALLOW_CHANNELS_CHANGE)
	if err != nil {
		r.pinner.Unpin()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	inRate := int(obtained.Freq)
	inChannels := int(obtained.Channels)
	if inChannels < 1 {
		inChannels = 1
	}

	rs, err := New(inRate, TargetSampleRate, FrameSamples, r.onResampledFrame)
	if err != nil {
		sdl.CloseAudioDevice(deviceID)
		r.pinner.Unpin()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	r.deviceID = deviceID
	r.deviceOpen = true
	r.currentDevice = deviceName
	r.inChannels = inChannels
	r.resampler = rs
	r.lg.Infof("Opened audio device %q at %d Hz / %d ch", deviceName, inRate, inChannels)
	return nil
}

// Start arms recording: resets VAD state and begins gated accumulation.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.deviceOpen {
		return fmt.Errorf("%w: device not open", ErrCaptureFailed)
	}
	if r.recording {
		return fmt.Errorf("%w: already recording", ErrCaptureFailed)
	}

	if r.gate != nil {
		r.gate.Reset()
	}
	r.gated = nil
	r.recording = true
	sdl.PauseAudioDevice(r.deviceID, false)

	if r.feedbackCallback != nil {
		r.feedbackCallback("start")
	}
	return nil
}

// Peek returns a snapshot copy of gated samples accumulated so far,
// without stopping the recording.
func (r *Recorder) Peek() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float32, len(r.gated))
	copy(out, r.gated)
	return out
}

// Stop disarms recording and returns the accumulated gated samples.
func (r *Recorder) Stop() ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, fmt.Errorf("%w: not recording", ErrCaptureFailed)
	}

	sdl.PauseAudioDevice(r.deviceID, true)
	r.recording = false
	out := r.gated
	r.gated = nil

	if r.feedbackCallback != nil {
		r.feedbackCallback("stop")
	}
	r.lg.Infof("Stopped recording, captured %d samples", len(out))
	return out, nil
}

// Cancel discards accumulated samples without returning them.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	sdl.PauseAudioDevice(r.deviceID, true)
	r.recording = false
	r.gated = nil
	if r.feedbackCallback != nil {
		r.feedbackCallback("cancel")
	}
}

// Close releases the OS input stream.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deviceOpen {
		sdl.PauseAudioDevice(r.deviceID, true)
		sdl.CloseAudioDevice(r.deviceID)
		r.pinner.Unpin()
		r.deviceOpen = false
		r.lg.Info("Closed audio recording device")
	}
}

// IsRecording reports whether recording is currently armed.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// IsOpen reports whether the OS input stream is currently open.
func (r *Recorder) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceOpen
}

// onResampledFrame runs on the capture thread: it receives a 30 ms
// 16 kHz mono frame, runs the VAD gate (if any), accumulates gated
// samples, and fans the frame out to the non-blocking consumer hooks.
// Must never block.
func (r *Recorder) onResampledFrame(frame []float32) {
	if !r.recording {
		return
	}

	isSpeech := true
	gated := frame
	if r.gate != nil {
		var err error
		isSpeech, gated, err = r.gate.OnFrame(frame)
		if err != nil {
			r.lg.Warnf("vad: %v", err)
			return
		}
	}

	if len(gated) > 0 {
		r.gated = append(r.gated, gated...)
	}

	r.levelEvents.Send(levelOf(frame))
	if r.vadCallback != nil {
		r.vadCallback(isSpeech, frame)
	}
}

func levelOf(frame []float32) LevelEvent {
	var sumSq float64
	var peak float32
	for _, s := range frame {
		sumSq += float64(s) * float64(s)
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	rms := float32(0)
	if len(frame) > 0 {
		rms = float32(math.Sqrt(sumSq / float64(len(frame))))
	}
	return LevelEvent{RMS: rms, Peak: peak}
}

// addSamples converts interleaved int16 device audio to mono float32 and
// feeds it through the resampler. Called from the cgo callback.
func (r *Recorder) addSamples(data []int16) {
	r.mu.Lock()
	resampler := r.resampler
	inChannels := r.inChannels
	recording := r.recording
	r.mu.Unlock()

	if !recording || resampler == nil {
		return
	}

	mono := toMonoFloat32(data, inChannels)
	resampler.Write(mono)
}

func toMonoFloat32(data []int16, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(data))
		for i, s := range data {
			out[i] = float32(s) / 32768.0
		}
		return out
	}

	frames := len(data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		out[i] = float32(sum / float64(channels) / 32768.0)
	}
	return out
}

//export audioInputCallback
func audioInputCallback(userdata unsafe.Pointer, stream *C.uint8, length C.int) {
	n := int(length) / 2 // 16-bit samples
	if n <= 0 {
		return
	}
	samples := unsafe.Slice((*int16)(unsafe.Pointer(stream)), n)
	(*Recorder)(userdata).addSamples(samples)
}

// GetAudioInputDevices lists available capture device names.
func GetAudioInputDevices() []string {
	count := sdl.GetNumAudioDevices(true)
	devices := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if name := sdl.GetAudioDeviceName(i, true); name != "" {
			devices = append(devices, name)
		}
	}
	return devices
}

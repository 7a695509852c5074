// stream/controller.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package stream implements the §4.7 streaming controller: a pause
// detector over VAD frames drives chunked re-transcription of the whole
// recording-so-far, with in-place text replacement in the focused
// application.
package stream

import (
	"sync"

	"github.com/scribehq/scribe/coordinator"
	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/util"
)

// Recorder is the subset of audio.Recorder the controller needs.
type Recorder interface {
	SetVADCallback(func(isSpeech bool, frame []float32))
	Peek() []float32
}

// Transcriber is the subset of transcribe.Manager the controller needs.
type Transcriber interface {
	Transcribe(samples []float32) (string, error)
	BeginStreaming()
	EndStreaming()
}

// BackspaceSender emits n backspace keystrokes, batched to avoid
// overflowing the OS input queue.
type BackspaceSender interface {
	SendBackspaces(n int) error
}

// Paster performs the clipboard save/write/paste/restore sequence (§4.10).
type Paster interface {
	Paste(text, binding string) error
}

const frameMs = 30

// PauseDetector counts consecutive silence VAD frames after first speech
// and emits a single rising-edge event per silence run (§4.7).
type PauseDetector struct {
	thresholdFrames int
	seenSpeech      bool
	silenceRun      int
	fired           bool
}

func NewPauseDetector(pauseThresholdMs int) *PauseDetector {
	frames := pauseThresholdMs / frameMs
	if frames < 1 {
		frames = 1
	}
	return &PauseDetector{thresholdFrames: frames}
}

// OnFrame feeds one VAD decision and reports whether this frame is the
// rising edge of a pause.
func (p *PauseDetector) OnFrame(isSpeech bool) bool {
	if isSpeech {
		p.seenSpeech = true
		p.silenceRun = 0
		p.fired = false
		return false
	}

	if !p.seenSpeech {
		return false
	}

	p.silenceRun++
	if p.silenceRun >= p.thresholdFrames && !p.fired {
		p.fired = true
		return true
	}
	return false
}

// TextReplacer tracks what's currently visible in the focused application
// and retracts/repastes it as refined transcriptions arrive (§4.7 "Text
// replacer").
type TextReplacer struct {
	backspace BackspaceSender
	paster    Paster
	binding   string

	mu              sync.Mutex
	totalCharsShown int
}

func NewTextReplacer(backspace BackspaceSender, paster Paster, binding string) *TextReplacer {
	return &TextReplacer{backspace: backspace, paster: paster, binding: binding}
}

// ReplaceAll retracts whatever is currently shown and pastes newText.
func (tr *TextReplacer) ReplaceAll(newText string) error {
	tr.mu.Lock()
	n := tr.totalCharsShown
	tr.mu.Unlock()

	if n > 0 {
		if err := tr.backspace.SendBackspaces(n); err != nil {
			return err
		}
	}
	if err := tr.paster.Paste(newText, tr.binding); err != nil {
		return err
	}

	tr.mu.Lock()
	tr.totalCharsShown = len([]rune(newText))
	tr.mu.Unlock()
	return nil
}

// Append pastes text without retraction, extending what's shown.
func (tr *TextReplacer) Append(text string) error {
	if err := tr.paster.Paste(text, tr.binding); err != nil {
		return err
	}
	tr.mu.Lock()
	tr.totalCharsShown += len([]rune(text))
	tr.mu.Unlock()
	return nil
}

// Reset clears tracking state without touching what's on screen.
func (tr *TextReplacer) Reset() {
	tr.mu.Lock()
	tr.totalCharsShown = 0
	tr.mu.Unlock()
}

// TotalCharsShown reports the tracked character count (§8 "total_chars_output").
func (tr *TextReplacer) TotalCharsShown() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.totalCharsShown
}

// Controller drives the streaming session of each recording in turn. One
// Controller is reused across recordings; Begin resets its per-recording
// pause-detector and text-replacer state.
type Controller struct {
	lg     *log.Logger
	rec    Recorder
	tx     Transcriber
	pause  *PauseDetector
	repl   *TextReplacer
	coord  *coordinator.Coordinator

	// workMu serializes the actual transcribe+replace work so pause events
	// within one session never interleave (§5). A whisper pass can run long
	// enough that a stuck lock here is worth surfacing, hence LoggingMutex
	// over a plain sync.Mutex.
	workMu util.LoggingMutex

	mu      sync.Mutex
	op      coordinator.Operation
	busy    bool
	pending bool
}

func NewController(lg *log.Logger, coord *coordinator.Coordinator, rec Recorder, tx Transcriber, repl *TextReplacer, pauseThresholdMs int) *Controller {
	return &Controller{
		lg:    lg,
		rec:   rec,
		tx:    tx,
		pause: NewPauseDetector(pauseThresholdMs),
		repl:  repl,
		coord: coord,
	}
}

// Begin registers the VAD hook and enters the streaming bracket; call
// from the hotkey dispatcher's Session.Begin.
func (c *Controller) Begin(op coordinator.Operation) {
	c.mu.Lock()
	c.op = op
	c.mu.Unlock()

	c.pause = NewPauseDetector(c.pause.thresholdFrames * frameMs)
	c.repl.Reset()
	c.tx.BeginStreaming()
	c.rec.SetVADCallback(c.onVADFrame)
}

// onVADFrame runs on the capture thread; it must never block, so a pause
// event only ever kicks off a transcription if one isn't already running
// for this session (§5 "Pause events ... serialized").
func (c *Controller) onVADFrame(isSpeech bool, _ []float32) {
	if !c.pause.OnFrame(isSpeech) {
		return
	}

	c.mu.Lock()
	if c.busy {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.busy = true
	op := c.op
	c.mu.Unlock()

	go c.runChunk(op, false)
}

// runChunk snapshots accumulated samples since the start of the recording
// and re-transcribes the whole thing (§4.7 "Chunk policy" point 1: this is
// deliberately not "since the last pause").
func (c *Controller) runChunk(op coordinator.Operation, final bool) {
	c.workMu.Lock(c.lg)
	defer c.workMu.Unlock(c.lg)

	defer func() {
		c.mu.Lock()
		c.busy = false
		again := c.pending
		c.pending = false
		c.mu.Unlock()
		if again && !final {
			go c.runChunk(op, false)
		}
	}()

	if !c.coord.IsActive(op.ID) {
		return
	}

	samples := c.rec.Peek()
	if len(samples) == 0 {
		return
	}

	text, err := c.tx.Transcribe(samples)
	if err != nil {
		c.lg.Warnf("stream: chunk transcription failed: %v", err)
		return
	}

	if !c.coord.IsActive(op.ID) {
		return // superseded while transcribing; discard silently
	}

	if err := c.repl.ReplaceAll(text); err != nil {
		c.lg.Warnf("stream: replace_all failed: %v", err)
	}
}

// Finalize detaches the VAD hook, runs one last transcription of the full
// buffer, and releases the streaming bracket (§4.7 "Finalize"). samples is
// the buffer returned by the recorder's Stop().
func (c *Controller) Finalize(op coordinator.Operation, samples []float32) {
	c.rec.SetVADCallback(nil)

	// Acquiring workMu waits out any in-flight chunk so ReplaceAll calls
	// for one session never interleave (§5).
	c.workMu.Lock(c.lg)
	defer c.workMu.Unlock(c.lg)
	defer c.tx.EndStreaming()

	if !c.coord.IsActive(op.ID) {
		return
	}
	if len(samples) == 0 {
		return
	}

	text, err := c.tx.Transcribe(samples)
	if err != nil {
		c.lg.Warnf("stream: final transcription failed: %v", err)
		return
	}
	if !c.coord.IsActive(op.ID) {
		return
	}
	if err := c.repl.ReplaceAll(text); err != nil {
		c.lg.Warnf("stream: final replace_all failed: %v", err)
	}
}

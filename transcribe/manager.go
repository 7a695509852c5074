// transcribe/manager.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package transcribe owns the active model and serializes access to it
// (§4.6), sitting on top of the out-of-process worker client.
package transcribe

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/transcribe/worker"
)

var (
	ErrModelNotLoaded  = errors.New("transcribe: model not loaded")
	ErrModelLoadFailed = errors.New("transcribe: model load failed")
)

type ModelState int

const (
	StateUnloaded ModelState = iota
	StateLoading
	StateLoaded
	StateUnloading
)

func (s ModelState) String() string {
	switch s {
	case StateUnloaded:
		return "Unloaded"
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	case StateUnloading:
		return "Unloading"
	default:
		return "Unknown"
	}
}

// Runtime is which backend the model is resident on.
type Runtime string

const (
	RuntimeGPU Runtime = "GPU"
	RuntimeCPU Runtime = "CPU"
)

// ModelDescriptor identifies a model and where it runs (§3).
type ModelDescriptor struct {
	ID          string
	DisplayName string
	FilePath    string
	Runtime     Runtime
}

// Segment re-exports the wire segment type so callers don't need to import
// the worker package directly.
type Segment = worker.Segment

// VerboseResult is the §4.6 transcribe_verbose response shape.
type VerboseResult struct {
	Text     string
	Segments []Segment
}

// Manager serializes transcribe calls against a single active model and
// counts nested streaming brackets. Its state moves Unloaded -> Loading ->
// Loaded, or back to Unloaded when a load fails. It has no unload
// operation: StateUnloading is never entered, and nothing unloads the model
// when the streaming-bracket depth returns to zero.
type Manager struct {
	lg     *log.Logger
	client *worker.Client

	mu             sync.Mutex
	state          ModelState
	active         ModelDescriptor
	loadErr        error
	streamingDepth int
	sf             singleflight.Group
}

func NewManager(lg *log.Logger, client *worker.Client) *Manager {
	return &Manager{lg: lg, client: client}
}

// InitiateModelLoad begins loading desc if it isn't already the active,
// loaded model. It is non-blocking and idempotent: calling it twice with
// the same descriptor performs at most one load (§8 round-trip property).
// The returned channel receives the eventual result exactly once.
func (m *Manager) InitiateModelLoad(desc ModelDescriptor) <-chan error {
	result := make(chan error, 1)

	if err := CheckCPUSupport(); err != nil {
		m.mu.Lock()
		m.state = StateUnloaded
		m.loadErr = err
		m.mu.Unlock()
		result <- err
		return result
	}

	m.mu.Lock()
	if m.state == StateLoaded && m.active == desc {
		m.mu.Unlock()
		result <- nil
		return result
	}
	m.state = StateLoading
	m.mu.Unlock()

	key := fmt.Sprintf("%s|%s|%s", desc.ID, desc.FilePath, desc.Runtime)
	go func() {
		_, err, _ := m.sf.Do(key, func() (any, error) {
			useGPU := desc.Runtime == RuntimeGPU
			if loadErr := m.client.LoadModel(desc.FilePath, useGPU); loadErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrModelLoadFailed, loadErr)
			}
			return nil, nil
		})

		m.mu.Lock()
		if err != nil {
			m.state = StateUnloaded
			m.loadErr = err
			m.lg.Errorf("model load failed: %v", err)
		} else {
			m.state = StateLoaded
			m.active = desc
			m.loadErr = nil
			m.lg.Infof("model loaded: %s (%s)", desc.ID, desc.Runtime)
		}
		m.mu.Unlock()

		result <- err
	}()

	return result
}

// ActiveModel returns the currently active descriptor and whether a model
// is loaded at all.
func (m *Manager) ActiveModel() (ModelDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.state == StateLoaded
}

// State returns the current model state machine value.
func (m *Manager) State() ModelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BeginStreaming increments the streaming bracket depth, keeping the
// model resident even across idle periods (§4.6 "Streaming bracket").
func (m *Manager) BeginStreaming() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamingDepth++
}

// EndStreaming decrements the streaming bracket depth.
func (m *Manager) EndStreaming() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streamingDepth > 0 {
		m.streamingDepth--
	}
}

// Transcribe blocks until the active model is Loaded (or the load fails)
// and then transcribes samples.
func (m *Manager) Transcribe(samples []float32) (string, error) {
	if err := m.awaitLoaded(); err != nil {
		return "", err
	}
	return m.client.Transcribe(samples, worker.TranscribeParams{})
}

// TranscribeVerbose is like Transcribe but also returns segment detail.
func (m *Manager) TranscribeVerbose(samples []float32) (VerboseResult, error) {
	if err := m.awaitLoaded(); err != nil {
		return VerboseResult{}, err
	}
	text, segs, err := m.client.TranscribeVerbose(samples, worker.TranscribeParams{})
	if err != nil {
		return VerboseResult{}, err
	}
	return VerboseResult{Text: text, Segments: segs}, nil
}

func (m *Manager) awaitLoaded() error {
	for {
		m.mu.Lock()
		state := m.state
		loadErr := m.loadErr
		m.mu.Unlock()

		switch state {
		case StateLoaded:
			return nil
		case StateLoading:
			time.Sleep(20 * time.Millisecond)
		case StateUnloaded:
			if loadErr != nil {
				return loadErr
			}
			return ErrModelNotLoaded
		default:
			return ErrModelNotLoaded
		}
	}
}

// audio/manager.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audio

import (
	"sync"
	"time"

	"github.com/scribehq/scribe/log"
)

// KeepAliveMode is the device keep-alive policy (§4.4).
type KeepAliveMode int

const (
	KeepAliveOff KeepAliveMode = iota
	KeepAliveForever
	KeepAliveDuration
)

type KeepAlive struct {
	Mode     KeepAliveMode
	Duration time.Duration
}

const (
	minRecordingDuration = 1.0 * time.Second
	padToDuration        = 1.25 * time.Second
)

// Manager implements device selection, keep-alive policy, and start/stop/
// cancel semantics over a single Recorder (§4.4). Only one Manager exists
// per process, owning the process's single capture session.
type Manager struct {
	lg       *log.Logger
	recorder *Recorder

	mu                sync.Mutex
	deviceName        string
	keepAlive         KeepAlive
	recordingBinding  string
	recording         bool
	generation        uint64
	pendingCloseTimer *time.Timer
}

func NewManager(lg *log.Logger, recorder *Recorder, deviceName string, keepAlive KeepAlive) *Manager {
	m := &Manager{
		lg:         lg,
		recorder:   recorder,
		deviceName: deviceName,
		keepAlive:  keepAlive,
	}
	if keepAlive.Mode == KeepAliveForever {
		if err := recorder.Open(deviceName); err != nil {
			lg.Warnf("audio manager: failed to eagerly open device: %v", err)
		}
	}
	return m
}

// SetKeepAlive updates the keep-alive policy, applying its immediate
// side effects right away: Forever opens the device, Off closes it unless
// a recording is in progress, and Duration takes effect at the next stop.
func (m *Manager) SetKeepAlive(ka KeepAlive) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keepAlive = ka
	m.generation++ // invalidate any pending close from the old policy

	switch ka.Mode {
	case KeepAliveForever:
		if err := m.recorder.Open(m.deviceName); err != nil {
			m.lg.Warnf("audio manager: failed to open device for keep-alive forever: %v", err)
		}
	case KeepAliveOff:
		if !m.recording {
			m.recorder.Close()
		}
	case KeepAliveDuration:
		// Nothing to do until the next stop.
	}
}

// SetDevice changes the selected input device name, closing any
// currently-open stream on a different device unless a recording is in
// progress; the new device is opened on the next start.
func (m *Manager) SetDevice(deviceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if deviceName != m.deviceName && !m.recording {
		m.recorder.Close()
	}
	m.deviceName = deviceName
}

// TryStart begins recording for bindingID if currently idle. Returns false
// if a recording is already in progress (§4.4).
func (m *Manager) TryStart(bindingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recording {
		return false, nil
	}

	m.generation++ // cancel any pending keep-alive-duration close
	if m.pendingCloseTimer != nil {
		m.pendingCloseTimer.Stop()
		m.pendingCloseTimer = nil
	}

	if !m.recorder.IsOpen() {
		if err := m.recorder.Open(m.deviceName); err != nil {
			return false, err
		}
	}
	if err := m.recorder.Start(); err != nil {
		return false, err
	}

	m.recording = true
	m.recordingBinding = bindingID
	return true, nil
}

// Stop ends recording if bindingID matches the currently-recording
// binding, returning the padded samples and evaluating keep-alive policy.
// The bool result mirrors Option<Vec<f32>>: false means the binding didn't
// match and no stop was performed.
func (m *Manager) Stop(bindingID string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.recording || m.recordingBinding != bindingID {
		return nil, false, nil
	}

	samples, err := m.recorder.Stop()
	if err != nil {
		return nil, false, err
	}
	m.recording = false
	m.recordingBinding = ""

	if len(samples) > 0 {
		samples = padToMinimum(samples)
	}

	m.applyKeepAliveAfterStopLocked()
	return samples, true, nil
}

// Cancel forces the active recording to Idle, discarding samples.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.recording {
		return
	}
	m.recorder.Cancel()
	m.recording = false
	m.recordingBinding = ""
	m.applyKeepAliveAfterStopLocked()
}

// applyKeepAliveAfterStopLocked must be called with mu held.
func (m *Manager) applyKeepAliveAfterStopLocked() {
	switch m.keepAlive.Mode {
	case KeepAliveForever:
		// Leave the stream open.
	case KeepAliveOff:
		m.recorder.Close()
	case KeepAliveDuration:
		m.generation++
		gen := m.generation
		d := m.keepAlive.Duration
		m.pendingCloseTimer = time.AfterFunc(d, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.generation != gen || m.recording {
				return // superseded by a new start/stop/keep-alive change
			}
			m.recorder.Close()
		})
	}
}

// Shutdown closes the capture stream unconditionally and invalidates any
// pending timers, for process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	if m.pendingCloseTimer != nil {
		m.pendingCloseTimer.Stop()
	}
	m.recorder.Close()
}

func padToMinimum(samples []float32) []float32 {
	dur := time.Duration(float64(len(samples)) / float64(TargetSampleRate) * float64(time.Second))
	if dur >= minRecordingDuration {
		return samples
	}
	targetLen := int(padToDuration.Seconds() * float64(TargetSampleRate))
	if targetLen <= len(samples) {
		return samples
	}
	padded := make([]float32, targetLen)
	copy(padded, samples)
	return padded
}

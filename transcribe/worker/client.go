// transcribe/worker/client.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package worker

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribehq/scribe/log"
)

// ErrWorkerExited is returned when the sidecar process exits mid-request
// or is found dead before a request is sent. The client marks itself dead
// so the next call respawns a fresh process.
var ErrWorkerExited = errors.New("worker: sidecar process exited")

// Client owns a persistent sidecar process and serializes RPCs to it; at
// most one request is ever in flight (§4.5).
type Client struct {
	lg       *log.Logger
	path     string
	args     []string
	readyFor time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	alive   bool
}

// NewClient builds a Client that will spawn path (with args) on its first
// request.
func NewClient(lg *log.Logger, path string, args ...string) *Client {
	return &Client{lg: lg, path: path, args: args, readyFor: 30 * time.Second}
}

// LoadModel spawns the sidecar if needed and instructs it to load the
// given model.
func (c *Client) LoadModel(modelPath string, useGPU bool) error {
	req := Request{Type: TypeLoadModel, ModelPath: modelPath, UseGPU: useGPU}
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("worker: load_model failed: %s", resp.Error)
	}
	return nil
}

// Transcribe sends audio for transcription and returns the resulting text.
func (c *Client) Transcribe(samples []float32, params TranscribeParams) (string, error) {
	resp, err := c.transcribe(samples, params)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// TranscribeVerbose is like Transcribe but also returns per-segment detail.
func (c *Client) TranscribeVerbose(samples []float32, params TranscribeParams) (string, []Segment, error) {
	params.Verbose = true
	resp, err := c.transcribe(samples, params)
	if err != nil {
		return "", nil, err
	}
	return resp.Text, resp.Segments, nil
}

func (c *Client) transcribe(samples []float32, params TranscribeParams) (Response, error) {
	req := Request{Type: TypeTranscribe, Audio: samples, Params: &params}
	resp, err := c.roundTrip(req)
	if err != nil {
		return Response{}, err
	}
	if !resp.OK {
		return Response{}, fmt.Errorf("worker: transcribe failed: %s", resp.Error)
	}
	return resp, nil
}

// UnloadModel asks the sidecar to free the currently-loaded model.
func (c *Client) UnloadModel() error {
	resp, err := c.roundTrip(Request{Type: TypeUnloadModel})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("worker: unload_model failed: %s", resp.Error)
	}
	return nil
}

// IsAlive reports whether the sidecar is currently believed to be running.
func (c *Client) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Close terminates the sidecar: best-effort close of stdin (asking it to
// exit cleanly), then SIGKILL-equivalent if it doesn't exit promptly.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if !c.alive || c.cmd == nil {
		return nil
	}
	c.alive = false

	_ = c.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = c.cmd.Process.Kill()
		<-done
	}
	c.cmd = nil
	return nil
}

func (c *Client) roundTrip(req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		if err := c.spawnLocked(); err != nil {
			return Response{}, err
		}
	}

	req.RequestID = uuid.NewString()

	data, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	data = append(data, '\n')

	if _, err := c.stdin.Write(data); err != nil {
		c.alive = false
		return Response{}, fmt.Errorf("%w: %v", ErrWorkerExited, err)
	}

	if !c.scanner.Scan() {
		c.alive = false
		if err := c.scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrWorkerExited, err)
		}
		return Response{}, ErrWorkerExited
	}

	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(c.scanner.Bytes()), &resp); err != nil {
		return Response{}, fmt.Errorf("worker: malformed response: %w", err)
	}
	return resp, nil
}

// spawnLocked starts the sidecar process and blocks until its startup
// ready line arrives. c.mu must be held.
func (c *Client) spawnLocked() error {
	cmd := exec.Command(c.path, c.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("worker: failed to spawn sidecar: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	readyCh := make(chan error, 1)
	go func() {
		if !scanner.Scan() {
			readyCh <- fmt.Errorf("%w: no ready line", ErrWorkerExited)
			return
		}
		var resp Response
		if err := json.Unmarshal(bytes.TrimSpace(scanner.Bytes()), &resp); err != nil {
			readyCh <- fmt.Errorf("worker: malformed ready line: %w", err)
			return
		}
		if !resp.OK {
			readyCh <- fmt.Errorf("worker: sidecar reported not ready: %s", resp.Error)
			return
		}
		readyCh <- nil
	}()

	select {
	case err := <-readyCh:
		if err != nil {
			_ = stdin.Close()
			_ = cmd.Process.Kill()
			return err
		}
	case <-time.After(c.readyFor):
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		return fmt.Errorf("worker: sidecar did not become ready within %s", c.readyFor)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.scanner = scanner
	c.alive = true
	c.lg.Infof("Spawned transcription sidecar: %s", c.path)
	return nil
}

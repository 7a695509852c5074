// cmd/scribe-worker/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Command scribe-worker is the out-of-process speech-model sidecar (§4.5):
// it hosts exactly one loaded whisper model at a time and speaks
// line-delimited JSON on stdin/stdout so a GPU driver fault or OOM in the
// model can never take down the hotkey loop in the parent process.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/scribehq/scribe/autowhisper"
	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/transcribe/worker"
)

func main() {
	useGPUFlag := flag.Bool("gpu", false, "prefer GPU acceleration if available")
	logDir := flag.String("log-dir", "", "log directory override")
	flag.Parse()

	lg := log.New(true, "info", *logDir)
	defer lg.CatchAndReportCrash()

	w := &sidecar{lg: lg, preferGPU: *useGPUFlag}
	w.run(os.Stdin, os.Stdout)
}

type sidecar struct {
	lg        *log.Logger
	preferGPU bool

	mu    sync.Mutex
	model *autowhisper.Model
}

func (w *sidecar) run(in *os.File, out *os.File) {
	enc := json.NewEncoder(out)
	w.writeReady(enc)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024*1024)

	for scanner.Scan() {
		var req worker.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(worker.Response{OK: false, Error: fmt.Sprintf("malformed request: %v", err)})
			continue
		}

		resp := w.handle(req)
		resp.RequestID = req.RequestID
		if err := enc.Encode(resp); err != nil {
			w.lg.Errorf("failed to write response: %v", err)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		w.lg.Errorf("stdin read error: %v", err)
	}
}

func (w *sidecar) writeReady(enc *json.Encoder) {
	enc.Encode(worker.Response{OK: true})
}

func (w *sidecar) handle(req worker.Request) worker.Response {
	switch req.Type {
	case worker.TypeLoadModel:
		return w.handleLoadModel(req)
	case worker.TypeTranscribe:
		return w.handleTranscribe(req)
	case worker.TypeUnloadModel:
		return w.handleUnloadModel()
	default:
		return worker.Response{OK: false, Error: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}

func (w *sidecar) handleLoadModel(req worker.Request) worker.Response {
	data, err := os.ReadFile(req.ModelPath)
	if err != nil {
		return worker.Response{OK: false, Error: fmt.Sprintf("read model file: %v", err)}
	}

	m, err := autowhisper.LoadModelFromBytes(data)
	if err != nil {
		return worker.Response{OK: false, Error: fmt.Sprintf("load model: %v", err)}
	}

	w.mu.Lock()
	if w.model != nil {
		w.model.Close()
	}
	w.model = m
	w.mu.Unlock()

	w.lg.Infof("loaded model %s (gpu=%v, %s)", req.ModelPath, req.UseGPU, autowhisper.ProcessorDescription())
	return worker.Response{OK: true}
}

func (w *sidecar) handleUnloadModel() worker.Response {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	return worker.Response{OK: true}
}

func (w *sidecar) handleTranscribe(req worker.Request) worker.Response {
	w.mu.Lock()
	m := w.model
	w.mu.Unlock()

	if m == nil {
		return worker.Response{OK: false, Error: "no model loaded"}
	}

	params := worker.TranscribeParams{}
	if req.Params != nil {
		params = *req.Params
	}

	pcm := floatToInt16(req.Audio)
	opts := autowhisper.Options{Language: params.Language, Translate: params.Translate}

	if params.Verbose {
		text, segs, err := autowhisper.TranscribeVerboseWithModel(m, pcm, 16000, 1, opts)
		if err != nil {
			return worker.Response{OK: false, Error: err.Error()}
		}
		return worker.Response{OK: true, Text: text, Segments: toWireSegments(segs)}
	}

	text, err := autowhisper.TranscribeWithModel(m, pcm, 16000, 1, opts)
	if err != nil {
		return worker.Response{OK: false, Error: err.Error()}
	}
	return worker.Response{OK: true, Text: text}
}

func floatToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

func toWireSegments(segs []autowhisper.VerboseSegment) []worker.Segment {
	out := make([]worker.Segment, len(segs))
	for i, s := range segs {
		out[i] = worker.Segment{
			ID:               s.ID,
			Start:            s.Start,
			End:              s.End,
			Text:             s.Text,
			Tokens:           s.Tokens,
			AvgLogprob:       s.AvgLogprob,
			NoSpeechProb:     s.NoSpeechProb,
			CompressionRatio: s.CompressionRatio,
			Temperature:      s.Temperature,
		}
	}
	return out
}

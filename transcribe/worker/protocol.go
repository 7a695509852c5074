// transcribe/worker/protocol.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package worker implements the §4.5/§6 sidecar RPC: a persistent
// subprocess hosting the speech model, spoken to over line-delimited
// JSON on stdin/stdout so a GPU driver fault or OOM in the model can
// never take down the hotkey loop.
package worker

// Request is the line-delimited JSON request frame. Type discriminates
// between "load_model", "transcribe", and "unload_model"; only the fields
// relevant to that type are populated.
type Request struct {
	Type      string            `json:"type"`
	RequestID string            `json:"request_id,omitempty"`
	ModelPath string            `json:"model_path,omitempty"`
	UseGPU    bool              `json:"use_gpu,omitempty"`
	Audio     []float32         `json:"audio,omitempty"`
	Params    *TranscribeParams `json:"params,omitempty"`
}

type TranscribeParams struct {
	Language  string `json:"language,omitempty"`
	Translate bool   `json:"translate"`
	Verbose   bool   `json:"verbose,omitempty"`
}

// Segment is a single decoded span, shaped to map directly onto a
// well-known cloud speech-to-text JSON response (§4.6).
type Segment struct {
	ID               int     `json:"id"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens,omitempty"`
	AvgLogprob       float64 `json:"avg_logprob"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	CompressionRatio float64 `json:"compression_ratio"`
	Temperature      float64 `json:"temperature"`
}

// Response is the line-delimited JSON response frame.
type Response struct {
	OK        bool      `json:"ok"`
	RequestID string    `json:"request_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Segments  []Segment `json:"segments,omitempty"`
	Error     string    `json:"error,omitempty"`
}

const (
	TypeLoadModel   = "load_model"
	TypeTranscribe  = "transcribe"
	TypeUnloadModel = "unload_model"
)

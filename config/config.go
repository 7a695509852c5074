// config/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/util"
)

//go:embed default.json
var defaultConfigJSON []byte

// KeepAliveMode is the audio device keep-alive policy (§4.4).
type KeepAliveMode string

const (
	KeepAliveOff      KeepAliveMode = "off"
	KeepAliveForever  KeepAliveMode = "forever"
	KeepAliveDuration KeepAliveMode = "duration"
)

type KeepAlive struct {
	Mode       KeepAliveMode `json:"mode"`
	DurationMs int           `json:"duration_ms"`
}

type VAD struct {
	Threshold          float64 `json:"threshold"`
	OpenAfterNSpeech   int     `json:"open_after_n_speech"`
	CloseAfterNSilence int     `json:"close_after_n_silence"`
	PrefillFrames      int     `json:"prefill_frames"`
}

// Model is the on-disk model descriptor; see transcribe.ModelDescriptor for
// the runtime counterpart that also tracks load state.
type Model struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	FilePath    string `json:"file_path"`
	PreferGPU   bool   `json:"prefer_gpu"`
}

type BindingMode string

const (
	ModePushToTalk BindingMode = "push_to_talk"
	ModeToggle     BindingMode = "toggle"
)

type Binding struct {
	ID           string      `json:"id"`
	HotkeyString string      `json:"hotkey_string"`
	Mode         BindingMode `json:"mode"`
}

type Streaming struct {
	Enabled           bool `json:"enabled"`
	PauseThresholdMs  int  `json:"pause_threshold_ms"`
}

// Config is the full persisted configuration document.
type Config struct {
	AudioDevice           string    `json:"audio_device"`
	KeepAlive             KeepAlive `json:"keep_alive"`
	VAD                   VAD       `json:"vad"`
	Model                 Model     `json:"model"`
	Bindings              []Binding `json:"bindings"`
	PasteBinding          string    `json:"paste_binding"`
	Streaming             Streaming `json:"streaming"`
	AudioFeedback         bool      `json:"audio_feedback"`
	ProcessFilterDenylist []string  `json:"process_filter_denylist"`
}

// Default returns the built-in default configuration, parsed fresh each
// call so callers can't mutate the embedded copy.
func Default() Config {
	var c Config
	if err := json.Unmarshal(defaultConfigJSON, &c); err != nil {
		// The embedded default is part of the binary; a parse failure here
		// means the binary itself is broken.
		panic("config: embedded default.json is invalid: " + err.Error())
	}
	return c
}

// Dir returns the directory configuration is persisted under.
func Dir() (string, error) {
	d, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "Scribe"), nil
}

func path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the on-disk config, merging it over Default() so that fields
// added in a later version that aren't present in an older saved file fall
// back to their default rather than zero-valuing. If no file exists yet,
// the defaults are returned and saved.
func Load(lg *log.Logger) (Config, error) {
	cfg := Default()

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return cfg, Save(cfg)
	} else if err != nil {
		return cfg, err
	}

	if dups := util.FindDuplicateJSONKeys(data); len(dups) > 0 {
		for _, d := range dups {
			lg.Warnf("config: duplicate key %q at %q; last value wins", d.Key, d.Path)
		}
	}

	if err := util.UnmarshalJSONBytes(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save persists cfg to disk, creating the config directory if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	p, err := path()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Binding looks up a binding by id, falling back to ok=false if absent.
func (c Config) Binding(id string) (Binding, bool) {
	for _, b := range c.Bindings {
		if b.ID == id {
			return b, true
		}
	}
	return Binding{}, false
}

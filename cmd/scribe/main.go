// cmd/scribe/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Command scribe is the push-to-talk dictation engine: it loads
// configuration, opens the audio capture session, spawns the
// transcription sidecar, registers global hotkeys, and wires the
// streaming or simple session pipeline depending on configuration.
package main

import (
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	mainthread "golang.design/x/hotkey/mainthread"

	"github.com/scribehq/scribe/audio"
	"github.com/scribehq/scribe/config"
	"github.com/scribehq/scribe/coordinator"
	"github.com/scribehq/scribe/hotkey"
	"github.com/scribehq/scribe/inject"
	"github.com/scribehq/scribe/log"
	"github.com/scribehq/scribe/stream"
	"github.com/scribehq/scribe/transcribe"
	"github.com/scribehq/scribe/transcribe/worker"
	"github.com/scribehq/scribe/util"
)

func main() {
	mainthread.Init(run)
}

func run() {
	vadLibPath := flag.String("vad-lib", "", "path to the onnxruntime shared library")
	workerPath := flag.String("worker-path", "", "path to the scribe-worker binary")
	flag.Parse()

	lg := log.New(false, "info", "")
	defer lg.CatchAndReportCrash()

	tempFiles := util.MakeTempFileRegistry(lg)
	defer tempFiles.RemoveAll()

	cfg, err := config.Load(lg)
	if err != nil {
		lg.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	if err := transcribe.CheckCPUSupport(); err != nil {
		lg.Errorf("unsupported CPU: %v", err)
		os.Exit(1)
	}

	detector, gate := setupVAD(lg, cfg, *vadLibPath)
	if detector != nil {
		defer detector.Close()
	}

	recorder := audio.NewRecorder(lg, gate)
	audioMgr := audio.NewManager(lg, recorder, cfg.AudioDevice, toAudioKeepAlive(cfg.KeepAlive))
	defer audioMgr.Shutdown()

	client := worker.NewClient(lg, resolveWorkerPath(*workerPath))
	defer client.Close()

	txMgr := transcribe.NewManager(lg, client)
	if cfg.Model.FilePath != "" {
		runtime := transcribe.RuntimeCPU
		if cfg.Model.PreferGPU {
			runtime = transcribe.RuntimeGPU
		}
		desc := transcribe.ModelDescriptor{
			ID:          cfg.Model.ID,
			DisplayName: cfg.Model.DisplayName,
			FilePath:    cfg.Model.FilePath,
			Runtime:     runtime,
		}
		go func() {
			if err := <-txMgr.InitiateModelLoad(desc); err != nil {
				lg.Errorf("model load failed: %v", err)
			}
		}()
	}

	coord := coordinator.New(coordinator.NopSink{})
	shortcutState := &coordinator.ShortcutState{}

	filter := inject.NewDenylistFilter(cfg.ProcessFilterDenylist)
	defaultPaste := "ctrl+v"
	if runtime.GOOS == "darwin" {
		defaultPaste = "cmd+v"
	}
	injector, err := inject.New(lg, defaultPaste, filter)
	if err != nil {
		lg.Errorf("failed to build injector: %v", err)
		os.Exit(1)
	}

	var session hotkey.Session
	if cfg.Streaming.Enabled {
		repl := stream.NewTextReplacer(inject.NewBackspacer(), injector, cfg.PasteBinding)
		ctrl := stream.NewController(lg, coord, recorder, txMgr, repl, cfg.Streaming.PauseThresholdMs)
		session = stream.NewSession(lg, coord, shortcutState, ctrl)
	} else {
		session = stream.NewSimpleSession(lg, coord, shortcutState, txMgr, injector, cfg.PasteBinding)
	}

	dispatcher := hotkey.NewDispatcher(lg, coord, audioMgr, session, shortcutState, cfg.Bindings)
	dispatcher.SetSuppressWhenClamshellClosed(true)

	registry := hotkey.NewRegistry(lg, dispatcher)
	defer registry.Close()
	for _, b := range cfg.Bindings {
		if err := registry.Register(b); err != nil {
			lg.Warnf("hotkey: %v", err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	dispatcher.WatchSignal("transcribe", stop)

	fnMonitor := hotkey.NewFnKeyMonitor(lg, dispatcher)
	go fnMonitor.Start(stop)

	lg.Infof("scribe started, audio processor: device=%q streaming=%v", cfg.AudioDevice, cfg.Streaming.Enabled)

	select {}
}

// setupVAD loads the Silero-class ONNX model referenced in the user's
// config directory, falling back to an always-speech detector (so capture
// keeps working, ungated) if no model file is present yet.
func setupVAD(lg *log.Logger, cfg config.Config, libPath string) (audio.Detector, *audio.Gate) {
	// With alwaysSpeech this gate opens on the first frame and never closes,
	// so every captured frame is kept.
	ungated := audio.NewGate(alwaysSpeech{}, audio.GateParams{Threshold: 0.5, OpenAfterNSpeech: 1, CloseAfterNSilence: 1, PrefillFrames: 1})

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		lg.Warnf("vad: onnxruntime init failed, recording will be ungated: %v", err)
		return nil, ungated
	}

	dir, err := config.Dir()
	if err != nil {
		lg.Warnf("vad: %v", err)
		return nil, ungated
	}
	modelPath := filepath.Join(dir, "models", "silero_vad.onnx")

	detector, err := audio.NewSileroDetector(modelPath, audio.FrameSamples)
	if err != nil {
		lg.Warnf("vad: failed to load %q, recording will be ungated: %v", modelPath, err)
		return nil, ungated
	}

	return detector, audio.NewGate(detector, gateParamsFromConfig(cfg.VAD))
}

func gateParamsFromConfig(v config.VAD) audio.GateParams {
	return audio.GateParams{
		Threshold:          v.Threshold,
		OpenAfterNSpeech:   v.OpenAfterNSpeech,
		CloseAfterNSilence: v.CloseAfterNSilence,
		PrefillFrames:      v.PrefillFrames,
	}
}

// alwaysSpeech is the fallback detector used when the VAD model can't be
// loaded; every frame is treated as speech so capture degrades to
// unfiltered recording instead of failing outright.
type alwaysSpeech struct{}

func (alwaysSpeech) SpeechProb(frame []float32) (float64, error) { return 1.0, nil }
func (alwaysSpeech) Close() error                                { return nil }

func toAudioKeepAlive(k config.KeepAlive) audio.KeepAlive {
	switch k.Mode {
	case config.KeepAliveForever:
		return audio.KeepAlive{Mode: audio.KeepAliveForever}
	case config.KeepAliveDuration:
		return audio.KeepAlive{Mode: audio.KeepAliveDuration, Duration: time.Duration(k.DurationMs) * time.Millisecond}
	default:
		return audio.KeepAlive{Mode: audio.KeepAliveOff}
	}
}

// resolveWorkerPath finds the scribe-worker sidecar binary next to the
// running executable if no explicit path was given.
func resolveWorkerPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	exe, err := os.Executable()
	if err != nil {
		return "scribe-worker"
	}
	candidate := filepath.Join(filepath.Dir(exe), "scribe-worker")
	if _, err := exec.LookPath(candidate); err == nil {
		return candidate
	}
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return "scribe-worker"
}

// transcribe/benchmark.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package transcribe

import (
	"fmt"
	"time"
)

// Benchmark timing thresholds, relaxed to favor larger (more accurate)
// models: a tier must process 1s of silence in under acceptThresholdMs to
// be usable at all, and in under continueThresholdMs to be worth trying
// the next, larger tier.
const (
	continueThresholdMs = 300
	acceptThresholdMs   = 450
	benchmarkPasses     = 3
	warmupPasses        = 2
)

// BenchmarkResult records one tier's outcome for a progressive benchmark
// run, surfaced so callers can log or report it.
type BenchmarkResult struct {
	Descriptor ModelDescriptor
	LatencyMs  int64
	Accepted   bool
}

// RunProgressiveBenchmark loads each tier from smallest to largest,
// benchmarking 1 second of silence, and returns the best (largest
// still-fast-enough) descriptor. Tiers must be ordered smallest to
// largest. It returns ErrModelLoadFailed if no tier is fast enough.
func (m *Manager) RunProgressiveBenchmark(tiers []ModelDescriptor) (ModelDescriptor, []BenchmarkResult, error) {
	if err := CheckCPUSupport(); err != nil {
		return ModelDescriptor{}, nil, err
	}

	const sampleRate = 16000
	silence := make([]float32, sampleRate) // 1s of silence

	var (
		selected     ModelDescriptor
		haveSelected bool
		results      []BenchmarkResult
	)

	for _, tier := range tiers {
		latencyMs, err := m.benchmarkTier(tier, silence)
		if err != nil {
			m.lg.Warnf("benchmark: skipping %s: %v", tier.ID, err)
			continue
		}

		accepted := latencyMs <= acceptThresholdMs
		results = append(results, BenchmarkResult{Descriptor: tier, LatencyMs: latencyMs, Accepted: accepted})

		if !accepted {
			m.lg.Infof("benchmark: %s too slow (%dms > %dms), stopping", tier.ID, latencyMs, acceptThresholdMs)
			break
		}

		selected = tier
		haveSelected = true

		if latencyMs > continueThresholdMs {
			m.lg.Infof("benchmark: %s acceptable (%dms), stopping", tier.ID, latencyMs)
			break
		}
		m.lg.Infof("benchmark: %s fast (%dms), trying larger tier", tier.ID, latencyMs)
	}

	if !haveSelected {
		return ModelDescriptor{}, results, fmt.Errorf("%w: no model tier fast enough", ErrModelLoadFailed)
	}
	return selected, results, nil
}

// benchmarkTier loads tier, runs warmup passes to trigger shader
// compilation / allocation, then times the minimum of several passes
// (GPU performance varies with power state and thermal throttling, so
// the minimum is the representative figure).
func (m *Manager) benchmarkTier(tier ModelDescriptor, silence []float32) (int64, error) {
	if err := <-m.InitiateModelLoad(tier); err != nil {
		return 0, err
	}

	for i := 0; i < warmupPasses; i++ {
		if _, err := m.Transcribe(silence); err != nil {
			return 0, err
		}
	}

	var minMs int64 = -1
	for i := 0; i < benchmarkPasses; i++ {
		start := time.Now()
		if _, err := m.Transcribe(silence); err != nil {
			return 0, err
		}
		ms := time.Since(start).Milliseconds()
		if minMs < 0 || ms < minMs {
			minMs = ms
		}
	}
	return minMs, nil
}

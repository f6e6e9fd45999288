//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package metric

import "time"

// Measurement is one metric computed over one target. Failed computations
// still produce a Measurement with Error set, so partial results from a
// batch are never lost.
type Measurement struct {
	// MetricName names the metric that produced the measurement.
	MetricName string `json:"metricName"`
	// RawValue is the computed value before normalization.
	RawValue any `json:"rawValue,omitempty"`
	// Score is the normalized value in [0, 1], nil when the computation
	// failed or the metric has no normalizer.
	Score *float64 `json:"score,omitempty"`
	// Reasoning is the judge's explanation for model metrics.
	Reasoning string `json:"reasoning,omitempty"`
	// Error describes the failure when the computation failed.
	Error string `json:"error,omitempty"`
	// ExecutionTime is how long the computation took.
	ExecutionTime time.Duration `json:"executionTime"`
	// Timestamp records when the measurement was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Failed reports whether the computation failed.
func (m *Measurement) Failed() bool {
	return m.Error != ""
}

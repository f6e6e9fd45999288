//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"context"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// Compute evaluates a code or model metric over one target. Failures,
// including panics out of metric code, are returned as a failed
// Measurement rather than an error, so one bad computation never aborts a
// batch. Scorer metrics are computed with ComputeScorer instead.
func Compute(ctx context.Context, m *Metric, target Target) (measurement Measurement) {
	started := time.Now()
	measurement = Measurement{MetricName: m.Name, Timestamp: started}
	defer func() {
		if r := recover(); r != nil {
			measurement.RawValue = nil
			measurement.Score = nil
			measurement.Error = fmt.Sprintf("metric %q panicked: %v", m.Name, r)
		}
		measurement.ExecutionTime = time.Since(started)
	}()

	switch {
	case m.Code != nil:
		computeCode(m, target, &measurement)
	case m.Judge != nil:
		computeJudge(ctx, m, target, &measurement)
	case m.Scorer != nil:
		measurement.Error = fmt.Sprintf("metric %q is a scorer, compute its inputs first", m.Name)
	default:
		measurement.Error = fmt.Sprintf("metric %q has no computation", m.Name)
	}
	return measurement
}

func computeCode(m *Metric, target Target, measurement *Measurement) {
	raw, err := m.Code.Compute(target)
	if err != nil {
		measurement.Error = fmt.Sprintf("compute %q: %v", m.Name, err)
		return
	}
	measurement.RawValue = raw
	normalize(m.ValueType, m.Code.Normalize, measurement)
}

func computeJudge(ctx context.Context, m *Metric, target Target, measurement *Measurement) {
	prompt, err := m.Judge.Prompt(target)
	if err != nil {
		measurement.Error = fmt.Sprintf("render prompt for %q: %v", m.Name, err)
		return
	}
	judgment, err := m.Judge.Judge.Judge(ctx, &model.JudgeRequest{
		Prompt:           prompt,
		Rubric:           m.Judge.Rubric,
		GenerationConfig: m.Judge.Generation,
	})
	if err != nil {
		measurement.Error = fmt.Sprintf("judge %q: %v", m.Name, err)
		return
	}
	measurement.Reasoning = judgment.Reasoning
	if m.ValueType == ValueOrdinal {
		measurement.RawValue = judgment.Ordinal
	} else {
		measurement.RawValue = judgment.Score
	}
	normalize(m.ValueType, m.Judge.Normalize, measurement)
}

// normalize fills in the score. Without an explicit normalizer, numbers
// pass through clamped and bools map to 0/1; ordinals stay score-less and
// are judged on the raw value.
func normalize(valueType ValueType, normalizer Normalizer, measurement *Measurement) {
	if normalizer == nil {
		switch valueType {
		case ValueNumber:
			normalizer = Identity()
		case ValueBool:
			normalizer = FromBool()
		default:
			return
		}
	}
	score, err := normalizer(measurement.RawValue)
	if err != nil {
		measurement.Error = fmt.Sprintf("normalize %q: %v", measurement.MetricName, err)
		return
	}
	measurement.Score = &score
}

// ComputeScorer combines the input measurements of a scorer metric into a
// weighted average over scores. Missing or failed inputs are excluded and
// the weights renormalized over the present ones. A scorer with no usable
// input fails.
func ComputeScorer(m *Metric, inputs map[string]Measurement) (measurement Measurement) {
	started := time.Now()
	measurement = Measurement{MetricName: m.Name, Timestamp: started}
	defer func() { measurement.ExecutionTime = time.Since(started) }()

	if m.Scorer == nil {
		measurement.Error = fmt.Sprintf("metric %q is not a scorer", m.Name)
		return measurement
	}
	var weightSum, weighted float64
	for _, input := range m.Scorer.Inputs {
		in, ok := inputs[input.MetricName]
		if !ok || in.Failed() || in.Score == nil {
			continue
		}
		weightSum += input.Weight
		weighted += input.Weight * (*in.Score)
	}
	if weightSum == 0 {
		measurement.Error = fmt.Sprintf("scorer %q: no input measurement available", m.Name)
		return measurement
	}
	score := weighted / weightSum
	measurement.RawValue = score
	measurement.Score = &score
	return measurement
}

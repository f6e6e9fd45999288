//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package aggregator reduces a metric's measurements and verdicts across
// targets into summary statistics. All reducers are pure; zero eligible
// inputs yield an undefined result, never a division by zero.
package aggregator

import (
	"math"
	"sort"

	"trpc.group/trpc-go/trpc-agent-bench/metric"
	"trpc.group/trpc-go/trpc-agent-bench/verdict"
)

// Mean averages the scores of the measurements, ignoring failed and
// score-less ones. The second return is false when no score is available.
func Mean(measurements []metric.Measurement) (float64, bool) {
	var sum float64
	var count int
	for i := range measurements {
		if score, ok := eligible(&measurements[i]); ok {
			sum += score
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// Percentile returns the p-th percentile score using the closest-rank
// method. p must be in (0, 100]. The second return is false when no score
// is available or p is out of range.
func Percentile(measurements []metric.Measurement, p float64) (float64, bool) {
	if p <= 0 || p > 100 {
		return 0, false
	}
	scores := make([]float64, 0, len(measurements))
	for i := range measurements {
		if score, ok := eligible(&measurements[i]); ok {
			scores = append(scores, score)
		}
	}
	if len(scores) == 0 {
		return 0, false
	}
	sort.Float64s(scores)
	rank := int(math.Ceil(p / 100 * float64(len(scores))))
	return scores[rank-1], true
}

// PassRateOption configures PassRate.
type PassRateOption func(*passRateOptions)

type passRateOptions struct {
	unknownAsFail bool
}

// WithUnknownAsFail counts unknown verdicts as failures instead of
// excluding them.
func WithUnknownAsFail() PassRateOption {
	return func(o *passRateOptions) {
		o.unknownAsFail = true
	}
}

// PassRate returns pass/(pass+fail) over the verdicts. Unknown verdicts
// are excluded from both counts unless WithUnknownAsFail is given. The
// second return is false when no verdict is counted.
func PassRate(verdicts []verdict.Verdict, opt ...PassRateOption) (float64, bool) {
	var opts passRateOptions
	for _, o := range opt {
		o(&opts)
	}
	var pass, total int
	for _, v := range verdicts {
		switch v {
		case verdict.Pass:
			pass++
			total++
		case verdict.Fail:
			total++
		case verdict.Unknown:
			if opts.unknownAsFail {
				total++
			}
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(pass) / float64(total), true
}

// Summary bundles the standard aggregations of one metric across targets.
// Undefined fields stay nil.
type Summary struct {
	// Mean is the average score.
	Mean *float64 `json:"mean,omitempty"`
	// P50 is the median score.
	P50 *float64 `json:"p50,omitempty"`
	// P75 is the 75th percentile score.
	P75 *float64 `json:"p75,omitempty"`
	// P90 is the 90th percentile score.
	P90 *float64 `json:"p90,omitempty"`
	// PassRate is pass/(pass+fail) over the verdicts.
	PassRate *float64 `json:"passRate,omitempty"`
	// Count is the number of measurements, failed ones included.
	Count int `json:"count"`
}

// Summarize assembles a Summary over the measurements and verdicts of one
// metric.
func Summarize(measurements []metric.Measurement, verdicts []verdict.Verdict, opt ...PassRateOption) Summary {
	summary := Summary{Count: len(measurements)}
	if mean, ok := Mean(measurements); ok {
		summary.Mean = &mean
	}
	if p50, ok := Percentile(measurements, 50); ok {
		summary.P50 = &p50
	}
	if p75, ok := Percentile(measurements, 75); ok {
		summary.P75 = &p75
	}
	if p90, ok := Percentile(measurements, 90); ok {
		summary.P90 = &p90
	}
	if passRate, ok := PassRate(verdicts, opt...); ok {
		summary.PassRate = &passRate
	}
	return summary
}

func eligible(m *metric.Measurement) (float64, bool) {
	if m.Failed() || m.Score == nil {
		return 0, false
	}
	return *m.Score, true
}

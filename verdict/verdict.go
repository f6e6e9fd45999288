//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package verdict classifies measurements into pass, fail or unknown
// through configurable policies.
package verdict

import (
	"fmt"

	"trpc.group/trpc-go/trpc-agent-bench/metric"
)

// Verdict is the pass/fail/unknown classification of one measurement.
type Verdict int

const (
	// Unknown means the measurement failed to compute. It is never a
	// silent default for a computed measurement.
	Unknown Verdict = iota
	// Pass means the measurement satisfied the policy.
	Pass
	// Fail means the measurement did not satisfy the policy.
	Fail
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the verdict as its string form.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON decodes a verdict from its string form.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"pass"`:
		*v = Pass
	case `"fail"`:
		*v = Fail
	case `"unknown"`:
		*v = Unknown
	default:
		return fmt.Errorf("unknown verdict %s", data)
	}
	return nil
}

// BooleanPolicy compares a boolean raw value to the expected one.
type BooleanPolicy struct {
	// PassWhen is the raw value that passes.
	PassWhen bool `json:"passWhen"`
}

// ThresholdPolicy passes scores at or above the threshold. The boundary
// is inclusive.
type ThresholdPolicy struct {
	// PassAt is the minimum passing score.
	PassAt float64 `json:"passAt"`
}

// RangePolicy passes scores inside [Min, Max]. Either bound is optional.
type RangePolicy struct {
	// Min is the inclusive lower bound, unbounded when nil.
	Min *float64 `json:"min,omitempty"`
	// Max is the inclusive upper bound, unbounded when nil.
	Max *float64 `json:"max,omitempty"`
}

// OrdinalPolicy passes raw label values on an allow-list.
type OrdinalPolicy struct {
	// Allow lists the passing labels.
	Allow []string `json:"allow"`
}

// Policy is a closed tagged variant: exactly one field is set.
type Policy struct {
	// Boolean compares the raw value to an expected boolean.
	Boolean *BooleanPolicy `json:"boolean,omitempty"`
	// Threshold passes scores at or above a bound.
	Threshold *ThresholdPolicy `json:"threshold,omitempty"`
	// Range passes scores inside an interval.
	Range *RangePolicy `json:"range,omitempty"`
	// Ordinal passes labels on an allow-list.
	Ordinal *OrdinalPolicy `json:"ordinal,omitempty"`
	// Custom delegates to a pure function of score and raw value.
	Custom func(score float64, raw any) Verdict `json:"-"`
}

// NewThreshold is a convenience constructor for the common threshold case.
func NewThreshold(passAt float64) *Policy {
	return &Policy{Threshold: &ThresholdPolicy{PassAt: passAt}}
}

// Validate checks that exactly one variant is set.
func (p *Policy) Validate() error {
	variants := 0
	if p.Boolean != nil {
		variants++
	}
	if p.Threshold != nil {
		variants++
	}
	if p.Range != nil {
		variants++
	}
	if p.Ordinal != nil {
		variants++
		if len(p.Ordinal.Allow) == 0 {
			return fmt.Errorf("verdict policy: ordinal allow-list is empty")
		}
	}
	if p.Custom != nil {
		variants++
	}
	if variants != 1 {
		return fmt.Errorf("verdict policy: exactly one variant must be set, got %d", variants)
	}
	if p.Range != nil && p.Range.Min == nil && p.Range.Max == nil {
		return fmt.Errorf("verdict policy: range requires at least one bound")
	}
	return nil
}

// Evaluate classifies a measurement. A failed measurement is Unknown;
// otherwise the policy decides pass or fail.
func (p *Policy) Evaluate(m *metric.Measurement) Verdict {
	if m == nil || m.Failed() {
		return Unknown
	}
	switch {
	case p.Boolean != nil:
		value, ok := m.RawValue.(bool)
		if !ok {
			return Unknown
		}
		return passWhen(value == p.Boolean.PassWhen)
	case p.Threshold != nil:
		if m.Score == nil {
			return Unknown
		}
		return passWhen(*m.Score >= p.Threshold.PassAt)
	case p.Range != nil:
		if m.Score == nil {
			return Unknown
		}
		if p.Range.Min != nil && *m.Score < *p.Range.Min {
			return Fail
		}
		if p.Range.Max != nil && *m.Score > *p.Range.Max {
			return Fail
		}
		return Pass
	case p.Ordinal != nil:
		label, ok := m.RawValue.(string)
		if !ok {
			return Unknown
		}
		for _, allowed := range p.Ordinal.Allow {
			if label == allowed {
				return Pass
			}
		}
		return Fail
	case p.Custom != nil:
		score := 0.0
		if m.Score != nil {
			score = *m.Score
		}
		return p.Custom(score, m.RawValue)
	default:
		return Unknown
	}
}

func passWhen(pass bool) Verdict {
	if pass {
		return Pass
	}
	return Fail
}

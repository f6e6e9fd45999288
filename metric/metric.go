//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package metric defines named, typed computations over evaluation targets:
// code-computed metrics, model-judged metrics and scorers that combine
// other metrics into a derived score.
package metric

import (
	"fmt"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// ValueType is the type of a metric's raw value.
type ValueType string

const (
	// ValueNumber means the raw value is numeric.
	ValueNumber ValueType = "number"
	// ValueBool means the raw value is a boolean.
	ValueBool ValueType = "bool"
	// ValueOrdinal means the raw value is one of a fixed set of labels.
	ValueOrdinal ValueType = "ordinal"
)

// Scope is the unit a metric is computed over.
type Scope string

const (
	// ScopeSingle targets one conversation step or one dataset item.
	ScopeSingle Scope = "single"
	// ScopeMulti targets one whole conversation.
	ScopeMulti Scope = "multi"
)

// Definition fixes a metric's identity and type. Name is the identity key
// and must be unique within an evaluator.
type Definition struct {
	// Name uniquely identifies the metric.
	Name string `json:"name"`
	// ValueType is the type of the raw value.
	ValueType ValueType `json:"valueType"`
	// Scope is the unit the metric is computed over.
	Scope Scope `json:"scope"`
	// Description explains what the metric measures.
	Description string `json:"description,omitempty"`
	// Cacheable allows measurements to be reused by fingerprint.
	Cacheable bool `json:"cacheable,omitempty"`
	// Metadata carries optional metric annotations.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CodeSpec is the pure, deterministic computation of a code metric.
type CodeSpec struct {
	// Compute extracts and computes the raw value from a target.
	Compute func(target Target) (any, error)
	// Normalize maps the raw value to a score in [0, 1].
	Normalize Normalizer
}

// JudgeSpec is the model-graded computation of a model metric.
type JudgeSpec struct {
	// Prompt renders the judge prompt for a target.
	Prompt func(target Target) (string, error)
	// Rubric is the scoring guidance handed to the judge.
	Rubric *model.Rubric
	// Judge produces the judgment.
	Judge model.Judge
	// Generation controls the judge model generation.
	Generation model.GenerationConfig
	// Normalize maps the judged value to a score in [0, 1].
	Normalize Normalizer
}

// WeightedInput names one input metric of a scorer with its weight.
type WeightedInput struct {
	// MetricName is the input metric.
	MetricName string `json:"metricName"`
	// Weight is the input's relative weight. Must be positive.
	Weight float64 `json:"weight"`
}

// ScorerSpec combines the scores of other metrics into a weighted average.
// A missing input measurement is excluded and the weights are renormalized
// over the present inputs.
type ScorerSpec struct {
	// Inputs are the weighted input metrics.
	Inputs []WeightedInput `json:"inputs"`
}

// Metric is a closed tagged variant: exactly one of Code, Judge or Scorer
// is set. The legal combinations are fixed, the orchestrator dispatches by
// tag.
type Metric struct {
	Definition

	// Code marks a code-computed metric.
	Code *CodeSpec
	// Judge marks a model-judged metric.
	Judge *JudgeSpec
	// Scorer marks a derived metric combining other metrics.
	Scorer *ScorerSpec
}

// Validate checks the metric for structural errors.
func (m *Metric) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("metric: name is required")
	}
	switch m.ValueType {
	case ValueNumber, ValueBool, ValueOrdinal:
	case "":
		return fmt.Errorf("metric %q: value type is required", m.Name)
	default:
		return fmt.Errorf("metric %q: unknown value type %q", m.Name, m.ValueType)
	}
	switch m.Scope {
	case ScopeSingle, ScopeMulti:
	case "":
		return fmt.Errorf("metric %q: scope is required", m.Name)
	default:
		return fmt.Errorf("metric %q: unknown scope %q", m.Name, m.Scope)
	}
	variants := 0
	if m.Code != nil {
		variants++
		if m.Code.Compute == nil {
			return fmt.Errorf("metric %q: code metric requires a compute function", m.Name)
		}
	}
	if m.Judge != nil {
		variants++
		if m.Judge.Prompt == nil {
			return fmt.Errorf("metric %q: model metric requires a prompt function", m.Name)
		}
		if m.Judge.Judge == nil {
			return fmt.Errorf("metric %q: model metric requires a judge", m.Name)
		}
		if m.Judge.Rubric == nil {
			return fmt.Errorf("metric %q: model metric requires a rubric", m.Name)
		}
	}
	if m.Scorer != nil {
		variants++
		if len(m.Scorer.Inputs) == 0 {
			return fmt.Errorf("metric %q: scorer requires at least one input", m.Name)
		}
		for _, input := range m.Scorer.Inputs {
			if input.MetricName == "" {
				return fmt.Errorf("metric %q: scorer input has no metric name", m.Name)
			}
			if input.Weight <= 0 {
				return fmt.Errorf("metric %q: scorer input %q has non-positive weight", m.Name, input.MetricName)
			}
		}
	}
	if variants != 1 {
		return fmt.Errorf("metric %q: exactly one of code, judge or scorer must be set, got %d", m.Name, variants)
	}
	return nil
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package metric

import "fmt"

// Normalizer maps a raw metric value to a canonical score in [0, 1].
type Normalizer func(raw any) (float64, error)

// Identity passes a numeric raw value through, clamped to [0, 1].
func Identity() Normalizer {
	return func(raw any) (float64, error) {
		value, ok := toFloat(raw)
		if !ok {
			return 0, fmt.Errorf("normalize: expected a number, got %T", raw)
		}
		return clamp(value), nil
	}
}

// Linear maps a numeric raw value from [min, max] linearly onto [0, 1],
// clamping values outside the range.
func Linear(min, max float64) Normalizer {
	return func(raw any) (float64, error) {
		if min >= max {
			return 0, fmt.Errorf("normalize: invalid range [%v, %v]", min, max)
		}
		value, ok := toFloat(raw)
		if !ok {
			return 0, fmt.Errorf("normalize: expected a number, got %T", raw)
		}
		return clamp((value - min) / (max - min)), nil
	}
}

// FromBool maps true to 1 and false to 0.
func FromBool() Normalizer {
	return func(raw any) (float64, error) {
		value, ok := raw.(bool)
		if !ok {
			return 0, fmt.Errorf("normalize: expected a bool, got %T", raw)
		}
		if value {
			return 1, nil
		}
		return 0, nil
	}
}

// Ordinal maps labels onto scores through the given table.
func Ordinal(scores map[string]float64) Normalizer {
	return func(raw any) (float64, error) {
		label, ok := raw.(string)
		if !ok {
			return 0, fmt.Errorf("normalize: expected a label, got %T", raw)
		}
		score, ok := scores[label]
		if !ok {
			return 0, fmt.Errorf("normalize: unknown label %q", label)
		}
		return clamp(score), nil
	}
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

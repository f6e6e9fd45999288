//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-bench/conversation"
	"trpc.group/trpc-go/trpc-agent-bench/metric"
)

func TestCoverageHalf(t *testing.T) {
	m, err := New("weather_keywords", []string{"forecast", "temperature"})
	require.NoError(t, err)

	item := &conversation.Item{
		ID:         "item-1",
		Prompt:     "What's the weather?",
		Completion: "The temperature today is around 25C.",
	}
	measurement := metric.Compute(context.Background(), m, metric.ItemTarget(item))

	require.False(t, measurement.Failed())
	assert.Equal(t, 0.5, measurement.RawValue)
	require.NotNil(t, measurement.Score)
	assert.Equal(t, 0.5, *measurement.Score)
}

func TestCoverageFullAndEmpty(t *testing.T) {
	m, err := New("k", []string{"sunny", "warm"})
	require.NoError(t, err)

	full := metric.ItemTarget(&conversation.Item{ID: "a", Completion: "Sunny and warm all week."})
	measurement := metric.Compute(context.Background(), m, full)
	assert.Equal(t, 1.0, measurement.RawValue)

	none := metric.ItemTarget(&conversation.Item{ID: "b", Completion: "Rain expected."})
	measurement = metric.Compute(context.Background(), m, none)
	assert.Equal(t, 0.0, measurement.RawValue)
}

func TestCaseSensitive(t *testing.T) {
	m, err := New("k", []string{"Sunny"}, WithCaseSensitive())
	require.NoError(t, err)

	measurement := metric.Compute(context.Background(), m,
		metric.ItemTarget(&conversation.Item{ID: "a", Completion: "sunny skies"}))
	assert.Equal(t, 0.0, measurement.RawValue)
}

func TestNewRejectsEmptyKeywords(t *testing.T) {
	_, err := New("k", nil)
	assert.Error(t, err)
}

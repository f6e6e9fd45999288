//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package evaluation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-bench/conversation"
	"trpc.group/trpc-go/trpc-agent-bench/metric"
	"trpc.group/trpc-go/trpc-agent-bench/metric/keyword"
	"trpc.group/trpc-go/trpc-agent-bench/model"
	"trpc.group/trpc-go/trpc-agent-bench/storage"
	"trpc.group/trpc-go/trpc-agent-bench/storage/inmemory"
	"trpc.group/trpc-go/trpc-agent-bench/verdict"
)

func lengthMetric(name string) *metric.Metric {
	return &metric.Metric{
		Definition: metric.Definition{
			Name:      name,
			ValueType: metric.ValueNumber,
			Scope:     metric.ScopeSingle,
			Cacheable: true,
		},
		Code: &metric.CodeSpec{
			Compute: func(target metric.Target) (any, error) {
				return len(target.Response()), nil
			},
			Normalize: metric.Linear(0, 100),
		},
	}
}

func weatherItems() []*conversation.Item {
	return []*conversation.Item{
		{ID: "item-1", Prompt: "What's the weather?", Completion: "The forecast says the temperature is 25C."},
		{ID: "item-2", Prompt: "What's the weather?", Completion: "It is warm."},
	}
}

func TestRunItemsEndToEnd(t *testing.T) {
	coverage, err := keyword.New("keyword_coverage", []string{"forecast", "temperature"})
	require.NoError(t, err)
	overall := &metric.Metric{
		Definition: metric.Definition{Name: "overall", ValueType: metric.ValueNumber, Scope: metric.ScopeSingle},
		Scorer: &metric.ScorerSpec{Inputs: []metric.WeightedInput{
			{MetricName: "keyword_coverage", Weight: 0.5},
			{MetricName: "response_length", Weight: 0.5},
		}},
	}
	evaluator := &Evaluator{
		Name:      "weather",
		Metrics:   []*metric.Metric{coverage, lengthMetric("response_length"), overall},
		Verdicts:  map[string]*verdict.Policy{"keyword_coverage": verdict.NewThreshold(0.7)},
		Targeting: TargetItems,
	}

	runner := New(WithRunID("run-1"))
	report, err := runner.Run(context.Background(), []*Evaluator{evaluator}, Inputs{Items: weatherItems()})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.PerTargetResults, 2)
	first := report.PerTargetResults[0]
	assert.Equal(t, "weather", first.Evaluator)
	assert.Equal(t, "item-1", first.TargetID)
	assert.Len(t, first.Measurements, 3)
	assert.Equal(t, verdict.Pass, first.Verdicts["keyword_coverage"])
	assert.Equal(t, verdict.Fail, report.PerTargetResults[1].Verdicts["keyword_coverage"])

	summary, ok := report.EvalSummaries["weather/keyword_coverage"]
	require.True(t, ok)
	require.NotNil(t, summary.Aggregations.PassRate)
	assert.InDelta(t, 0.5, *summary.Aggregations.PassRate, 1e-9)
	assert.Equal(t, 1, summary.VerdictSummary.Pass)
	assert.Equal(t, 1, summary.VerdictSummary.Fail)
	assert.Equal(t, 2, summary.Aggregations.Count)

	_, ok = report.EvalSummaries["weather/overall"]
	assert.True(t, ok)
}

func TestRunCachesByFingerprint(t *testing.T) {
	var computations atomic.Int64
	counting := &metric.Metric{
		Definition: metric.Definition{
			Name:      "counting",
			ValueType: metric.ValueNumber,
			Scope:     metric.ScopeSingle,
			Cacheable: true,
		},
		Code: &metric.CodeSpec{
			Compute: func(metric.Target) (any, error) {
				computations.Add(1)
				return 1.0, nil
			},
		},
	}
	// Identical content means identical fingerprints across all items.
	items := make([]*conversation.Item, 0, 16)
	for i := 0; i < 16; i++ {
		items = append(items, &conversation.Item{ID: "same", Prompt: "p", Completion: "c"})
	}
	evaluator := &Evaluator{
		Name:      "cached",
		Metrics:   []*metric.Metric{counting},
		Targeting: TargetItems,
	}

	runner := New(WithParallelism(8))
	report, err := runner.Run(context.Background(), []*Evaluator{evaluator}, Inputs{Items: items})
	require.NoError(t, err)
	assert.Len(t, report.PerTargetResults, 16)
	assert.Equal(t, int64(1), computations.Load())
}

func TestRunFailedMetricYieldsUnknown(t *testing.T) {
	failing := &metric.Metric{
		Definition: metric.Definition{Name: "failing", ValueType: metric.ValueNumber, Scope: metric.ScopeSingle},
		Code: &metric.CodeSpec{
			Compute: func(metric.Target) (any, error) {
				return nil, errors.New("flaky dependency")
			},
		},
	}
	evaluator := &Evaluator{
		Name:      "resilient",
		Metrics:   []*metric.Metric{failing, lengthMetric("response_length")},
		Verdicts:  map[string]*verdict.Policy{"failing": verdict.NewThreshold(0.5)},
		Targeting: TargetItems,
	}

	report, err := New().Run(context.Background(), []*Evaluator{evaluator}, Inputs{Items: weatherItems()})
	require.NoError(t, err)
	require.Len(t, report.PerTargetResults, 2)
	for _, result := range report.PerTargetResults {
		assert.Equal(t, verdict.Unknown, result.Verdicts["failing"])
		// The healthy metric still measured.
		assert.Len(t, result.Measurements, 2)
	}
	summary := report.EvalSummaries["resilient/failing"]
	assert.Equal(t, 2, summary.VerdictSummary.Unknown)
	assert.Nil(t, summary.Aggregations.Mean)
}

func TestRunIdempotentAggregates(t *testing.T) {
	coverage, err := keyword.New("keyword_coverage", []string{"forecast", "temperature"})
	require.NoError(t, err)
	evaluator := &Evaluator{
		Name:      "weather",
		Metrics:   []*metric.Metric{coverage},
		Verdicts:  map[string]*verdict.Policy{"keyword_coverage": verdict.NewThreshold(0.5)},
		Targeting: TargetItems,
	}

	first, err := New().Run(context.Background(), []*Evaluator{evaluator}, Inputs{Items: weatherItems()})
	require.NoError(t, err)
	second, err := New().Run(context.Background(), []*Evaluator{evaluator}, Inputs{Items: weatherItems()})
	require.NoError(t, err)

	a := first.EvalSummaries["weather/keyword_coverage"].Aggregations
	b := second.EvalSummaries["weather/keyword_coverage"].Aggregations
	assert.Equal(t, *a.Mean, *b.Mean)
	assert.Equal(t, *a.P50, *b.P50)
	assert.Equal(t, *a.PassRate, *b.PassRate)
}

func testConversation(t *testing.T, id string, turns int) *conversation.Conversation {
	t.Helper()
	steps := make([]conversation.Step, 0, turns)
	for i := 0; i < turns; i++ {
		steps = append(steps, conversation.Step{
			StepIndex: i,
			Input:     model.NewUserMessage("question"),
			Output:    []model.Message{model.NewAssistantMessage("answer")},
		})
	}
	conv, err := conversation.New(id, steps, nil)
	require.NoError(t, err)
	return conv
}

func TestRunMultiScopeOncePerConversation(t *testing.T) {
	var multiComputations atomic.Int64
	turnCount := &metric.Metric{
		Definition: metric.Definition{Name: "turn_count", ValueType: metric.ValueNumber, Scope: metric.ScopeMulti},
		Code: &metric.CodeSpec{
			Compute: func(target metric.Target) (any, error) {
				multiComputations.Add(1)
				conv, _ := target.Conversation()
				return len(conv.Steps), nil
			},
			Normalize: metric.Linear(0, 10),
		},
	}
	evaluator := &Evaluator{
		Name:      "depth",
		Metrics:   []*metric.Metric{turnCount, lengthMetric("response_length")},
		Targeting: TargetAllSteps,
	}

	inputs := Inputs{Conversations: []*conversation.Conversation{testConversation(t, "conv-1", 3)}}
	report, err := New().Run(context.Background(), []*Evaluator{evaluator}, inputs)
	require.NoError(t, err)

	// One target result per step plus one for the conversation.
	assert.Len(t, report.PerTargetResults, 4)
	assert.Equal(t, int64(1), multiComputations.Load())

	var stepResults, convResults int
	for _, result := range report.PerTargetResults {
		switch result.TargetID {
		case "conv-1":
			convResults++
			require.Len(t, result.Measurements, 1)
			assert.Equal(t, "turn_count", result.Measurements[0].MetricName)
		default:
			stepResults++
			require.Len(t, result.Measurements, 1)
			assert.Equal(t, "response_length", result.Measurements[0].MetricName)
		}
	}
	assert.Equal(t, 3, stepResults)
	assert.Equal(t, 1, convResults)
}

func TestRunSingleScopeScorerStepTargeting(t *testing.T) {
	combined := &metric.Metric{
		Definition: metric.Definition{Name: "combined", ValueType: metric.ValueNumber, Scope: metric.ScopeSingle},
		Scorer: &metric.ScorerSpec{Inputs: []metric.WeightedInput{
			{MetricName: "response_length", Weight: 1},
		}},
	}
	evaluator := &Evaluator{
		Name:      "steps",
		Metrics:   []*metric.Metric{lengthMetric("response_length"), combined},
		Verdicts:  map[string]*verdict.Policy{"combined": verdict.NewThreshold(0.01)},
		Targeting: TargetAllSteps,
	}

	inputs := Inputs{Conversations: []*conversation.Conversation{testConversation(t, "c1", 1)}}
	runner := New(WithUnknownAsFail())
	report, err := runner.Run(context.Background(), []*Evaluator{evaluator}, inputs)
	require.NoError(t, err)

	// The scorer must not land on the conversation target, which has no
	// single-scope inputs; only the step row remains.
	require.Len(t, report.PerTargetResults, 1)
	result := report.PerTargetResults[0]
	assert.Equal(t, "c1/0", result.TargetID)
	require.Len(t, result.Measurements, 2)
	for _, measurement := range result.Measurements {
		assert.False(t, measurement.Failed(), measurement.MetricName)
	}
	assert.Equal(t, verdict.Pass, result.Verdicts["combined"])

	summary := report.EvalSummaries["steps/combined"]
	assert.Equal(t, 1, summary.Aggregations.Count)
	assert.Equal(t, 0, summary.VerdictSummary.Unknown)
	require.NotNil(t, summary.Aggregations.PassRate)
	assert.InDelta(t, 1.0, *summary.Aggregations.PassRate, 1e-9)
}

func TestRunFinalStepTargeting(t *testing.T) {
	evaluator := &Evaluator{
		Name:      "final",
		Metrics:   []*metric.Metric{lengthMetric("response_length")},
		Targeting: TargetFinalStep,
	}
	inputs := Inputs{Conversations: []*conversation.Conversation{testConversation(t, "conv-1", 3)}}
	report, err := New().Run(context.Background(), []*Evaluator{evaluator}, inputs)
	require.NoError(t, err)
	require.Len(t, report.PerTargetResults, 1)
	assert.Equal(t, "conv-1/2", report.PerTargetResults[0].TargetID)
}

func TestRunPersistsReport(t *testing.T) {
	recorder := inmemory.New()
	runner := New(WithRecorder(recorder), WithRunID("run-9"))
	defer runner.Close()

	evaluator := &Evaluator{
		Name:      "weather",
		Metrics:   []*metric.Metric{lengthMetric("response_length")},
		Targeting: TargetItems,
	}
	_, err := runner.Run(context.Background(), []*Evaluator{evaluator}, Inputs{Items: weatherItems()})
	require.NoError(t, err)

	var stored Report
	found, err := recorder.Get(context.Background(), storage.ReportKey("run-9"), &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "run-9", stored.RunID)
	assert.Len(t, stored.PerTargetResults, 2)
}

func TestEvaluatorValidate(t *testing.T) {
	valid := func() *Evaluator {
		return &Evaluator{
			Name:      "e",
			Metrics:   []*metric.Metric{lengthMetric("m")},
			Targeting: TargetItems,
		}
	}
	assert.NoError(t, valid().Validate())

	e := valid()
	e.Name = ""
	assert.Error(t, e.Validate())

	e = valid()
	e.Targeting = "everything"
	assert.Error(t, e.Validate())

	e = valid()
	e.Metrics = nil
	assert.Error(t, e.Validate())

	e = valid()
	e.Metrics = append(e.Metrics, lengthMetric("m"))
	assert.Error(t, e.Validate())

	e = valid()
	e.Metrics = append(e.Metrics, &metric.Metric{
		Definition: metric.Definition{Name: "s", ValueType: metric.ValueNumber, Scope: metric.ScopeSingle},
		Scorer:     &metric.ScorerSpec{Inputs: []metric.WeightedInput{{MetricName: "ghost", Weight: 1}}},
	})
	assert.Error(t, e.Validate())

	e = valid()
	e.Verdicts = map[string]*verdict.Policy{"ghost": verdict.NewThreshold(0.5)}
	assert.Error(t, e.Validate())

	scorer := func(name, input string) *metric.Metric {
		return &metric.Metric{
			Definition: metric.Definition{Name: name, ValueType: metric.ValueNumber, Scope: metric.ScopeSingle},
			Scorer:     &metric.ScorerSpec{Inputs: []metric.WeightedInput{{MetricName: input, Weight: 1}}},
		}
	}
	e = valid()
	e.Metrics = append(e.Metrics, scorer("a", "b"), scorer("b", "a"))
	assert.ErrorContains(t, e.Validate(), "cycle")

	e = valid()
	e.Metrics = append(e.Metrics, scorer("self", "self"))
	assert.ErrorContains(t, e.Validate(), "cycle")

	e = valid()
	e.Metrics = append(e.Metrics, scorer("b", "m"), scorer("a", "b"))
	assert.NoError(t, e.Validate())

	e = valid()
	e.Metrics = append(e.Metrics, &metric.Metric{
		Definition: metric.Definition{Name: "multi", ValueType: metric.ValueNumber, Scope: metric.ScopeMulti},
		Code:       &metric.CodeSpec{Compute: func(metric.Target) (any, error) { return 1, nil }},
	})
	assert.Error(t, e.Validate())
}

func TestRunRequiresEvaluator(t *testing.T) {
	_, err := New().Run(context.Background(), nil, Inputs{})
	assert.Error(t, err)
}

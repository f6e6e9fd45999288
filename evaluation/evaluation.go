//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package evaluation orchestrates evaluators over conversations and
// dataset items: it resolves targets, computes metrics concurrently with
// per-run caching, applies verdict policies and assembles a frozen report.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-agent-bench/aggregator"
	"trpc.group/trpc-go/trpc-agent-bench/conversation"
	"trpc.group/trpc-go/trpc-agent-bench/log"
	"trpc.group/trpc-go/trpc-agent-bench/metric"
	"trpc.group/trpc-go/trpc-agent-bench/storage"
	"trpc.group/trpc-go/trpc-agent-bench/verdict"
)

// Targeting resolves which targets an evaluator computes its metrics over.
type Targeting string

const (
	// TargetAllSteps computes single-scope metrics over every step of
	// every conversation.
	TargetAllSteps Targeting = "all-steps"
	// TargetFinalStep computes single-scope metrics over the final step
	// of every conversation.
	TargetFinalStep Targeting = "final-step"
	// TargetWholeConversation computes all metrics over whole
	// conversations.
	TargetWholeConversation Targeting = "whole-conversation"
	// TargetItems computes single-scope metrics over dataset items.
	TargetItems Targeting = "items"
)

// Evaluator couples metrics with verdict policies and a targeting policy.
type Evaluator struct {
	// Name identifies the evaluator within a report.
	Name string
	// Metrics are the metrics to compute, scorers included.
	Metrics []*metric.Metric
	// Verdicts maps metric names to their verdict policies. Metrics
	// without a policy produce measurements but no verdict.
	Verdicts map[string]*verdict.Policy
	// Targeting resolves the evaluation targets.
	Targeting Targeting
}

// Validate checks the evaluator for structural errors: duplicate or
// invalid metrics, scorer inputs and verdict policies referencing unknown
// metrics, cyclic scorer inputs, multi-scope metrics under item targeting.
func (e *Evaluator) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("evaluator: name is required")
	}
	switch e.Targeting {
	case TargetAllSteps, TargetFinalStep, TargetWholeConversation, TargetItems:
	default:
		return fmt.Errorf("evaluator %q: unknown targeting %q", e.Name, e.Targeting)
	}
	if len(e.Metrics) == 0 {
		return fmt.Errorf("evaluator %q: at least one metric is required", e.Name)
	}
	names := make(map[string]*metric.Metric, len(e.Metrics))
	for _, m := range e.Metrics {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("evaluator %q: %w", e.Name, err)
		}
		if _, ok := names[m.Name]; ok {
			return fmt.Errorf("evaluator %q: duplicate metric %q", e.Name, m.Name)
		}
		names[m.Name] = m
		if e.Targeting == TargetItems && m.Scope == metric.ScopeMulti {
			return fmt.Errorf("evaluator %q: multi-scope metric %q cannot target items", e.Name, m.Name)
		}
	}
	for _, m := range e.Metrics {
		if m.Scorer == nil {
			continue
		}
		for _, input := range m.Scorer.Inputs {
			in, ok := names[input.MetricName]
			if !ok {
				return fmt.Errorf("evaluator %q: scorer %q references unknown metric %q",
					e.Name, m.Name, input.MetricName)
			}
			if in.Scope != m.Scope {
				return fmt.Errorf("evaluator %q: scorer %q mixes scopes with input %q",
					e.Name, m.Name, input.MetricName)
			}
		}
	}
	if cyclic := scorerCycle(e.Metrics, names); cyclic != "" {
		return fmt.Errorf("evaluator %q: scorer %q is part of an input cycle", e.Name, cyclic)
	}
	for name, policy := range e.Verdicts {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("evaluator %q: verdict policy references unknown metric %q", e.Name, name)
		}
		if policy == nil {
			return fmt.Errorf("evaluator %q: verdict policy for %q is nil", e.Name, name)
		}
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("evaluator %q: metric %q: %w", e.Name, name, err)
		}
	}
	return nil
}

// TargetResult collects the measurements and verdicts of one target under
// one evaluator.
type TargetResult struct {
	// Evaluator names the evaluator that produced the result.
	Evaluator string `json:"evaluator"`
	// TargetID identifies the target.
	TargetID string `json:"targetId"`
	// Measurements are the computed measurements, failed ones included.
	Measurements []metric.Measurement `json:"measurements"`
	// Verdicts maps metric names to their verdicts, only for metrics with
	// a policy.
	Verdicts map[string]verdict.Verdict `json:"verdicts,omitempty"`
}

// VerdictSummary counts verdicts per class.
type VerdictSummary struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Unknown int `json:"unknown"`
}

// EvalSummary aggregates one metric across all its targets.
type EvalSummary struct {
	// Aggregations holds mean, percentiles and pass rate.
	Aggregations aggregator.Summary `json:"aggregations"`
	// VerdictSummary counts verdicts per class.
	VerdictSummary VerdictSummary `json:"verdictSummary"`
}

// Report is the frozen output of one orchestrator run. It reflects every
// attempted computation, failures alongside successes.
type Report struct {
	// RunID identifies the run.
	RunID string `json:"runId"`
	// Timestamp records when the report was built.
	Timestamp time.Time `json:"timestamp"`
	// PerTargetResults lists one entry per (evaluator, target).
	PerTargetResults []TargetResult `json:"perTargetResults"`
	// EvalSummaries maps "evaluator/metric" to its aggregations.
	EvalSummaries map[string]EvalSummary `json:"evalSummaries"`
}

// Runner executes evaluators over targets.
type Runner struct {
	opts options
}

// New creates a Runner.
func New(opt ...Option) *Runner {
	return &Runner{opts: newOptions(opt...)}
}

// Close releases resources held by the runner's collaborators.
func (r *Runner) Close() error {
	if r.opts.recorder == nil {
		return nil
	}
	if err := r.opts.recorder.Close(); err != nil {
		return fmt.Errorf("close recorder: %w", err)
	}
	return nil
}

// Inputs are the evaluation targets of one run.
type Inputs struct {
	// Conversations are evaluated under step and conversation targeting.
	Conversations []*conversation.Conversation
	// Items are evaluated under item targeting.
	Items []*conversation.Item
}

// Run executes every evaluator over the inputs and assembles the report.
// A failed (metric, target) computation is recorded as a failed
// measurement with an unknown verdict; only structural errors (an invalid
// evaluator) abort the run.
func (r *Runner) Run(ctx context.Context, evaluators []*Evaluator, inputs Inputs) (*Report, error) {
	if len(evaluators) == 0 {
		return nil, fmt.Errorf("evaluation: at least one evaluator is required")
	}
	for _, evaluator := range evaluators {
		if err := evaluator.Validate(); err != nil {
			return nil, err
		}
	}
	runID := r.opts.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	report := &Report{
		RunID:         runID,
		Timestamp:     time.Now(),
		EvalSummaries: make(map[string]EvalSummary),
	}
	cache := newMeasurementCache()
	for _, evaluator := range evaluators {
		results, err := r.runEvaluator(ctx, evaluator, inputs, cache)
		if err != nil {
			return nil, err
		}
		report.PerTargetResults = append(report.PerTargetResults, results...)
		r.summarize(report, evaluator, results)
	}
	r.persist(ctx, report)
	return report, nil
}

// runEvaluator resolves targets, computes base metrics on the worker pool,
// derives scorers and applies verdict policies.
func (r *Runner) runEvaluator(ctx context.Context, evaluator *Evaluator, inputs Inputs, cache *measurementCache) ([]TargetResult, error) {
	targets := resolveTargets(evaluator.Targeting, inputs)
	if len(targets) == 0 {
		log.Debugf("evaluator %s: no targets resolved", evaluator.Name)
		return nil, nil
	}
	measured, err := r.computeBase(ctx, evaluator, targets, cache)
	if err != nil {
		return nil, err
	}
	results := make([]TargetResult, 0, len(targets))
	for i, target := range targets {
		byName := measured[i]
		computeScorers(evaluator, target, byName)
		if len(byName) == 0 {
			continue
		}
		result := TargetResult{
			Evaluator: evaluator.Name,
			TargetID:  target.ID(),
			Verdicts:  make(map[string]verdict.Verdict),
		}
		for _, m := range evaluator.Metrics {
			measurement, ok := byName[m.Name]
			if !ok {
				continue
			}
			result.Measurements = append(result.Measurements, measurement)
			if policy, ok := evaluator.Verdicts[m.Name]; ok {
				result.Verdicts[m.Name] = policy.Evaluate(&measurement)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// computeBase runs every applicable (base metric, target) pair on the
// bounded worker pool and returns per-target measurement maps.
func (r *Runner) computeBase(ctx context.Context, evaluator *Evaluator, targets []metric.Target, cache *measurementCache) ([]map[string]metric.Measurement, error) {
	type taskSpec struct {
		targetIdx int
		m         *metric.Metric
	}
	var specs []taskSpec
	for i, target := range targets {
		for _, m := range evaluator.Metrics {
			if m.Scorer != nil || !applies(m, target, evaluator.Targeting) {
				continue
			}
			specs = append(specs, taskSpec{targetIdx: i, m: m})
		}
	}
	measurements := make([]metric.Measurement, len(specs))
	run := func(idx int) {
		spec := specs[idx]
		measurements[idx] = cache.measure(ctx, spec.m, targets[spec.targetIdx])
	}
	if err := r.dispatch(len(specs), run); err != nil {
		return nil, err
	}
	measured := make([]map[string]metric.Measurement, len(targets))
	for i := range measured {
		measured[i] = make(map[string]metric.Measurement)
	}
	for i, spec := range specs {
		measured[spec.targetIdx][spec.m.Name] = measurements[i]
	}
	return measured, nil
}

// computeScorers derives scorer measurements in dependency order. Scorers
// follow the same applicability rules as base metrics, so a single-scope
// scorer never lands on the extra conversation target of a step targeting.
func computeScorers(evaluator *Evaluator, target metric.Target, byName map[string]metric.Measurement) {
	var pending []*metric.Metric
	for _, m := range evaluator.Metrics {
		if m.Scorer == nil || !applies(m, target, evaluator.Targeting) {
			continue
		}
		pending = append(pending, m)
	}
	// Validate rejects cyclic scorer inputs, so every pass resolves at
	// least one scorer.
	for len(pending) > 0 {
		var next []*metric.Metric
		for _, m := range pending {
			if !scorerReady(m, byName, pending) {
				next = append(next, m)
				continue
			}
			byName[m.Name] = metric.ComputeScorer(m, byName)
		}
		if len(next) == len(pending) {
			return
		}
		pending = next
	}
}

// scorerCycle walks the scorer input graph and returns the name of a
// scorer on a cycle, or the empty string.
func scorerCycle(metrics []*metric.Metric, names map[string]*metric.Metric) string {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(metrics))
	var visit func(m *metric.Metric) string
	visit = func(m *metric.Metric) string {
		if m.Scorer == nil || state[m.Name] == done {
			return ""
		}
		if state[m.Name] == visiting {
			return m.Name
		}
		state[m.Name] = visiting
		for _, input := range m.Scorer.Inputs {
			if cyclic := visit(names[input.MetricName]); cyclic != "" {
				return cyclic
			}
		}
		state[m.Name] = done
		return ""
	}
	for _, m := range metrics {
		if cyclic := visit(m); cyclic != "" {
			return cyclic
		}
	}
	return ""
}

// scorerReady reports whether none of the scorer's inputs is still a
// pending scorer.
func scorerReady(m *metric.Metric, byName map[string]metric.Measurement, pending []*metric.Metric) bool {
	for _, input := range m.Scorer.Inputs {
		if _, ok := byName[input.MetricName]; ok {
			continue
		}
		for _, p := range pending {
			if p.Name == input.MetricName && p != m {
				return false
			}
		}
	}
	return true
}

// resolveTargets maps the targeting policy onto concrete targets.
// Multi-scope metrics always attach to conversation targets, so step
// targetings add one conversation target per conversation.
func resolveTargets(targeting Targeting, inputs Inputs) []metric.Target {
	var targets []metric.Target
	switch targeting {
	case TargetAllSteps:
		for _, conv := range inputs.Conversations {
			for _, step := range conv.Steps {
				targets = append(targets, metric.StepTarget(conv.ID, step))
			}
			targets = append(targets, metric.ConversationTarget(conv))
		}
	case TargetFinalStep:
		for _, conv := range inputs.Conversations {
			if final := conv.FinalStep(); final != nil {
				targets = append(targets, metric.StepTarget(conv.ID, *final))
			}
			targets = append(targets, metric.ConversationTarget(conv))
		}
	case TargetWholeConversation:
		for _, conv := range inputs.Conversations {
			targets = append(targets, metric.ConversationTarget(conv))
		}
	case TargetItems:
		for _, item := range inputs.Items {
			targets = append(targets, metric.ItemTarget(item))
		}
	}
	return targets
}

// applies reports whether the metric runs on the target. Multi-scope
// metrics run once per conversation; under step targetings single-scope
// metrics skip the extra conversation target.
func applies(m *metric.Metric, target metric.Target, targeting Targeting) bool {
	if m.Scope == metric.ScopeMulti {
		return target.Multi()
	}
	if target.Multi() {
		return targeting == TargetWholeConversation
	}
	return true
}

// summarize builds per-(evaluator, metric) aggregations.
func (r *Runner) summarize(report *Report, evaluator *Evaluator, results []TargetResult) {
	var passRateOpts []aggregator.PassRateOption
	if r.opts.unknownAsFail {
		passRateOpts = append(passRateOpts, aggregator.WithUnknownAsFail())
	}
	for _, m := range evaluator.Metrics {
		var measurements []metric.Measurement
		var verdicts []verdict.Verdict
		var counts VerdictSummary
		for _, result := range results {
			for _, measurement := range result.Measurements {
				if measurement.MetricName != m.Name {
					continue
				}
				measurements = append(measurements, measurement)
				v, ok := result.Verdicts[m.Name]
				if !ok {
					continue
				}
				verdicts = append(verdicts, v)
				switch v {
				case verdict.Pass:
					counts.Pass++
				case verdict.Fail:
					counts.Fail++
				default:
					counts.Unknown++
				}
			}
		}
		if len(measurements) == 0 {
			continue
		}
		report.EvalSummaries[evaluator.Name+"/"+m.Name] = EvalSummary{
			Aggregations:   aggregator.Summarize(measurements, verdicts, passRateOpts...),
			VerdictSummary: counts,
		}
	}
}

// persist writes the report blob through the recorder when configured.
func (r *Runner) persist(ctx context.Context, report *Report) {
	if r.opts.recorder == nil {
		return
	}
	if err := r.opts.recorder.Put(ctx, storage.ReportKey(report.RunID), report); err != nil {
		log.Warnf("evaluation run %s: persist report: %v", report.RunID, err)
	}
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package trajectory

// Sink accumulates completed turns so later prompts see prior context.
// A run exclusively owns its sink; sinks are not shared across runs and
// need no locking.
type Sink interface {
	// Append records a completed turn.
	Append(step Step)
	// History returns the recorded turns in append order.
	History() []Step
}

// MemorySink keeps turns in memory. The zero value is ready to use.
type MemorySink struct {
	steps []Step
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(step Step) {
	s.steps = append(s.steps, step)
}

// History implements Sink.
func (s *MemorySink) History() []Step {
	return s.steps
}

// NoopSink discards every turn. Runs using it still terminate correctly,
// their prompts just never see accumulated context.
type NoopSink struct{}

// NewNoopSink returns a sink that records nothing.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

// Append implements Sink.
func (s *NoopSink) Append(Step) {}

// History implements Sink.
func (s *NoopSink) History() []Step {
	return nil
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package evaluation

import "trpc.group/trpc-go/trpc-agent-bench/storage"

// defaultParallelism bounds concurrent metric computations when
// unspecified.
const defaultParallelism = 8

type options struct {
	parallelism   int
	recorder      storage.Recorder
	runID         string
	unknownAsFail bool
}

// Option configures a Runner.
type Option func(*options)

func newOptions(opt ...Option) options {
	opts := options{parallelism: defaultParallelism}
	for _, o := range opt {
		o(&opts)
	}
	if opts.parallelism <= 0 {
		opts.parallelism = defaultParallelism
	}
	return opts
}

// WithParallelism bounds the number of concurrent metric computations.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithRecorder persists each run's report through the recorder, keyed by
// run ID.
func WithRecorder(recorder storage.Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(runID string) Option {
	return func(o *options) {
		o.runID = runID
	}
}

// WithUnknownAsFail counts unknown verdicts as failures in pass rates.
func WithUnknownAsFail() Option {
	return func(o *options) {
		o.unknownAsFail = true
	}
}

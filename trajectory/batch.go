//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package trajectory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// defaultBatchParallelism bounds concurrent runs when unspecified.
const defaultBatchParallelism = 4

// BatchResult pairs one definition with its run outcome. Err is set only
// for structural failures; model and agent failures surface inside Result.
type BatchResult struct {
	// Definition is the definition that was run.
	Definition *Definition
	// Result is the run outcome, nil when Err is set.
	Result *Result
	// Err is the structural error for the run, nil otherwise.
	Err error
}

type batchRunParam struct {
	idx     int
	ctx     context.Context
	engine  *Engine
	def     *Definition
	target  TargetAgent
	results []BatchResult
	wg      *sync.WaitGroup
}

func (p *batchRunParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.engine = nil
	p.def = nil
	p.target = nil
	p.results = nil
	p.wg = nil
}

var batchRunParamPool = &sync.Pool{
	New: func() any { return new(batchRunParam) },
}

// RunBatch executes many definitions against the target agent on a bounded
// worker pool. Results are returned in definition order. Each run gets a
// fresh sink regardless of the engine's sink option, so concurrent runs
// never share history.
func (e *Engine) RunBatch(ctx context.Context, defs []*Definition, target TargetAgent, parallelism int) ([]BatchResult, error) {
	if parallelism <= 0 {
		parallelism = defaultBatchParallelism
	}
	pool, err := ants.NewPoolWithFunc(parallelism, func(args any) {
		param, ok := args.(*batchRunParam)
		if !ok {
			panic("trajectory batch pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			batchRunParamPool.Put(param)
		}()
		param.results[param.idx] = param.engine.runIsolated(param.ctx, param.def, param.target)
	})
	if err != nil {
		return nil, fmt.Errorf("create trajectory batch pool: %w", err)
	}
	defer pool.Release()

	results := make([]BatchResult, len(defs))
	var wg sync.WaitGroup
	for i, def := range defs {
		param := batchRunParamPool.Get().(*batchRunParam)
		param.idx = i
		param.ctx = ctx
		param.engine = e
		param.def = def
		param.target = target
		param.results = results
		param.wg = &wg
		wg.Add(1)
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			batchRunParamPool.Put(param)
			results[i] = BatchResult{Definition: def, Err: fmt.Errorf("submit trajectory run: %w", err)}
		}
	}
	wg.Wait()
	return results, nil
}

// runIsolated runs one definition on a copy of the engine with a private
// sink and conversation ID.
func (e *Engine) runIsolated(ctx context.Context, def *Definition, target TargetAgent) BatchResult {
	if def == nil {
		return BatchResult{Err: errors.New("trajectory: definition is required")}
	}
	isolated := *e
	isolated.opts.sink = nil
	isolated.opts.conversationID = ""
	result, err := isolated.Run(ctx, def, target)
	return BatchResult{Definition: def, Result: result, Err: err}
}

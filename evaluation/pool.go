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
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

type measureParam struct {
	idx int
	run func(idx int)
	wg  *sync.WaitGroup
}

func (p *measureParam) reset() {
	p.idx = 0
	p.run = nil
	p.wg = nil
}

var measureParamPool = &sync.Pool{
	New: func() any { return new(measureParam) },
}

// dispatch runs n independent tasks on a bounded worker pool and waits
// for completion. Task panics are contained by the metric computation
// itself; submission failures run the task inline.
func (r *Runner) dispatch(n int, run func(idx int)) error {
	if n == 0 {
		return nil
	}
	size := r.opts.parallelism
	if size > n {
		size = n
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*measureParam)
		if !ok {
			panic("evaluation measure pool args type error")
		}
		wg := param.wg
		idx, task := param.idx, param.run
		param.reset()
		measureParamPool.Put(param)
		task(idx)
		wg.Done()
	})
	if err != nil {
		return fmt.Errorf("create evaluation pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		param := measureParamPool.Get().(*measureParam)
		param.idx = i
		param.run = run
		param.wg = &wg
		wg.Add(1)
		if err := pool.Invoke(param); err != nil {
			idx, task := param.idx, param.run
			param.reset()
			measureParamPool.Put(param)
			task(idx)
			wg.Done()
		}
	}
	wg.Wait()
	return nil
}

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
	"sync"

	"golang.org/x/sync/singleflight"

	"trpc.group/trpc-go/trpc-agent-bench/metric"
)

// measurementCache deduplicates cacheable metric computations within one
// run. The singleflight group guarantees at-most-one computation per
// fingerprint even under concurrent requests: the first caller computes
// and publishes, later callers await that result. The cache is owned by
// one run, so concurrent runs stay independent.
type measurementCache struct {
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]metric.Measurement
}

func newMeasurementCache() *measurementCache {
	return &measurementCache{entries: make(map[string]metric.Measurement)}
}

// measure computes a metric over a target, reusing a cached measurement
// when the metric is cacheable.
func (c *measurementCache) measure(ctx context.Context, m *metric.Metric, target metric.Target) metric.Measurement {
	if !m.Cacheable {
		return metric.Compute(ctx, m, target)
	}
	fingerprint := target.Fingerprint(m.Name)
	c.mu.RLock()
	cached, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if ok {
		return cached
	}
	result, _, _ := c.group.Do(fingerprint, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.entries[fingerprint]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		measurement := metric.Compute(ctx, m, target)
		c.mu.Lock()
		c.entries[fingerprint] = measurement
		c.mu.Unlock()
		return measurement, nil
	})
	return result.(metric.Measurement)
}

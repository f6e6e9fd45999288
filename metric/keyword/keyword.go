//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package keyword provides a keyword-coverage code metric: the fraction of
// expected keywords present in the target's response text.
package keyword

import (
	"errors"
	"strings"

	"trpc.group/trpc-go/trpc-agent-bench/metric"
)

type options struct {
	scope         metric.Scope
	caseSensitive bool
}

// Option configures the keyword metric.
type Option func(*options)

// WithScope sets the metric scope, single by default.
func WithScope(scope metric.Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithCaseSensitive makes keyword matching case sensitive.
func WithCaseSensitive() Option {
	return func(o *options) {
		o.caseSensitive = true
	}
}

// New builds a cacheable code metric measuring the fraction of keywords
// covered by the target's response.
func New(name string, keywords []string, opt ...Option) (*metric.Metric, error) {
	if len(keywords) == 0 {
		return nil, errors.New("keyword metric: at least one keyword is required")
	}
	opts := options{scope: metric.ScopeSingle}
	for _, o := range opt {
		o(&opts)
	}
	m := &metric.Metric{
		Definition: metric.Definition{
			Name:        name,
			ValueType:   metric.ValueNumber,
			Scope:       opts.scope,
			Description: "fraction of expected keywords present in the response",
			Cacheable:   true,
		},
		Code: &metric.CodeSpec{
			Compute: func(target metric.Target) (any, error) {
				return coverage(target.Response(), keywords, opts.caseSensitive), nil
			},
			Normalize: metric.Identity(),
		},
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func coverage(text string, keywords []string, caseSensitive bool) float64 {
	if !caseSensitive {
		text = strings.ToLower(text)
	}
	hits := 0
	for _, keyword := range keywords {
		if !caseSensitive {
			keyword = strings.ToLower(keyword)
		}
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

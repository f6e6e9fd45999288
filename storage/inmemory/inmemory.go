//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory storage.Recorder.
//
// Records are stored as encoded JSON so that readers always receive a copy
// and never alias the writer's value.
package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-agent-bench/storage"
)

// recorder implements storage.Recorder with a mutex-guarded map.
type recorder struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

var _ storage.Recorder = (*recorder)(nil)

// New creates a new in-memory recorder.
func New() storage.Recorder {
	return &recorder{records: make(map[string]json.RawMessage)}
}

// Put stores the record under the key.
func (r *recorder) Put(ctx context.Context, key storage.Key, record any) error {
	_ = ctx
	if err := key.Validate(); err != nil {
		return fmt.Errorf("validate key: %w", err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", key, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key.String()] = data
	return nil
}

// Get loads the record stored under the key into out.
func (r *recorder) Get(ctx context.Context, key storage.Key, out any) (bool, error) {
	_ = ctx
	if err := key.Validate(); err != nil {
		return false, fmt.Errorf("validate key: %w", err)
	}
	r.mu.RLock()
	data, ok := r.records[key.String()]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return true, nil
}

// Close implements storage.Recorder.
func (r *recorder) Close() error {
	return nil
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package local provides a file-backed storage.Recorder storing one JSON
// file per record under a base directory.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"trpc.group/trpc-go/trpc-agent-bench/storage"
)

// defaultRecordFileSuffix is the suffix of record files.
const defaultRecordFileSuffix = ".record.json"

// locator maps keys to file paths under the base directory.
type locator struct{}

// Build builds the path of a record file for the given key.
func (l *locator) Build(baseDir string, key storage.Key) string {
	switch key.Kind {
	case storage.KindStep:
		return filepath.Join(baseDir, string(key.Kind), key.ConversationID,
			strconv.Itoa(key.StepIndex)+defaultRecordFileSuffix)
	default:
		return filepath.Join(baseDir, string(key.Kind), key.RunID+defaultRecordFileSuffix)
	}
}

// recorder implements storage.Recorder over JSON files.
type recorder struct {
	baseDir string
	locator locator
}

var _ storage.Recorder = (*recorder)(nil)

// New creates a file-backed recorder rooted at baseDir.
func New(baseDir string) (storage.Recorder, error) {
	if baseDir == "" {
		return nil, errors.New("base dir is empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	return &recorder{baseDir: baseDir}, nil
}

// Put stores the record as a JSON file.
func (r *recorder) Put(ctx context.Context, key storage.Key, record any) error {
	_ = ctx
	if err := key.Validate(); err != nil {
		return fmt.Errorf("validate key: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", key, err)
	}
	path := r.locator.Build(r.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record dir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

// Get loads the record file into out.
func (r *recorder) Get(ctx context.Context, key storage.Key, out any) (bool, error) {
	_ = ctx
	if err := key.Validate(); err != nil {
		return false, fmt.Errorf("validate key: %w", err)
	}
	data, err := os.ReadFile(r.locator.Build(r.baseDir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read record %s: %w", key, err)
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

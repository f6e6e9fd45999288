//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-bench/storage"
)

type reportBlob struct {
	RunID string  `json:"runId"`
	Score float64 `json:"score"`
}

func TestPutGetRoundTrip(t *testing.T) {
	r, err := New(t.TempDir())
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	key := storage.StepKey("conv-1", 2)
	require.NoError(t, r.Put(ctx, key, reportBlob{RunID: "run-1", Score: 0.75}))

	var out reportBlob
	found, err := r.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.75, out.Score)
}

func TestRecordFileLayout(t *testing.T) {
	baseDir := t.TempDir()
	r, err := New(baseDir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, storage.StepKey("conv-1", 0), reportBlob{}))
	require.NoError(t, r.Put(ctx, storage.ReportKey("run-9"), reportBlob{RunID: "run-9"}))

	_, err = os.Stat(filepath.Join(baseDir, "step", "conv-1", "0.record.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(baseDir, "report", "run-9.record.json"))
	assert.NoError(t, err)
}

func TestGetMissingKey(t *testing.T) {
	r, err := New(t.TempDir())
	require.NoError(t, err)
	var out reportBlob
	found, err := r.Get(context.Background(), storage.ReportKey("absent"), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEmptyBaseDirRejected(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

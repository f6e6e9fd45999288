//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-bench/storage"
)

type stepTrace struct {
	Utterance string `json:"utterance"`
}

func TestPutGetRoundTrip(t *testing.T) {
	r := New()
	defer r.Close()
	ctx := context.Background()
	key := storage.StepKey("conv-1", 0)

	require.NoError(t, r.Put(ctx, key, stepTrace{Utterance: "what's the weather?"}))

	var out stepTrace
	found, err := r.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "what's the weather?", out.Utterance)
}

func TestGetMissingKey(t *testing.T) {
	r := New()
	defer r.Close()
	var out stepTrace
	found, err := r.Get(context.Background(), storage.StepKey("conv-1", 7), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutOverwrites(t *testing.T) {
	r := New()
	defer r.Close()
	ctx := context.Background()
	key := storage.ReportKey("run-1")

	require.NoError(t, r.Put(ctx, key, stepTrace{Utterance: "first"}))
	require.NoError(t, r.Put(ctx, key, stepTrace{Utterance: "second"}))

	var out stepTrace
	found, err := r.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", out.Utterance)
}

func TestInvalidKeyRejected(t *testing.T) {
	r := New()
	defer r.Close()
	err := r.Put(context.Background(), storage.Key{Kind: storage.KindStep}, stepTrace{})
	assert.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	r := New()
	ctx := context.Background()
	key := storage.ReportKey("run-2")
	require.NoError(t, r.Put(ctx, key, map[string]string{"a": "1"}))

	var first map[string]string
	_, err := r.Get(ctx, key, &first)
	require.NoError(t, err)
	first["a"] = "mutated"

	var second map[string]string
	_, err = r.Get(ctx, key, &second)
	require.NoError(t, err)
	assert.Equal(t, "1", second["a"])
}

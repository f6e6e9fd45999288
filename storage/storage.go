//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package storage defines the abstract key-value persistence contract for
// step traces and report blobs. Concrete layout is the backend's concern.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies persisted records.
type Kind string

const (
	// KindStep is a trajectory step trace, keyed by (conversationID, stepIndex).
	KindStep Kind = "step"
	// KindReport is an evaluation report blob, keyed by runID.
	KindReport Kind = "report"
)

// Key addresses one persisted record.
type Key struct {
	// Kind classifies the record.
	Kind Kind `json:"kind"`
	// ConversationID identifies the conversation for step traces.
	ConversationID string `json:"conversationId,omitempty"`
	// StepIndex identifies the step for step traces.
	StepIndex int `json:"stepIndex,omitempty"`
	// RunID identifies the evaluation run for report blobs.
	RunID string `json:"runId,omitempty"`
}

// StepKey builds the key of a step trace.
func StepKey(conversationID string, stepIndex int) Key {
	return Key{Kind: KindStep, ConversationID: conversationID, StepIndex: stepIndex}
}

// ReportKey builds the key of a report blob.
func ReportKey(runID string) Key {
	return Key{Kind: KindReport, RunID: runID}
}

// Validate checks the key for structural problems.
func (k Key) Validate() error {
	switch k.Kind {
	case KindStep:
		if k.ConversationID == "" {
			return errors.New("step key: conversation id is empty")
		}
		if k.StepIndex < 0 {
			return fmt.Errorf("step key: negative step index %d", k.StepIndex)
		}
	case KindReport:
		if k.RunID == "" {
			return errors.New("report key: run id is empty")
		}
	default:
		return fmt.Errorf("unknown record kind %q", k.Kind)
	}
	return nil
}

// String renders the key as a slash-separated identifier.
func (k Key) String() string {
	switch k.Kind {
	case KindStep:
		return strings.Join([]string{string(k.Kind), k.ConversationID, strconv.Itoa(k.StepIndex)}, "/")
	case KindReport:
		return strings.Join([]string{string(k.Kind), k.RunID}, "/")
	default:
		return string(k.Kind)
	}
}

// Recorder is the append-only persistence contract.
type Recorder interface {
	// Put stores the record under the key. Re-putting a key overwrites.
	Put(ctx context.Context, key Key, record any) error
	// Get loads the record stored under the key into out. The boolean reports
	// whether the key exists.
	Get(ctx context.Context, key Key, out any) (bool, error)
	// Close closes the recorder and releases owned resources.
	Close() error
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package conversation defines the canonical evaluation targets: captured
// multi-turn conversations and single-turn offline dataset items.
package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// Metadata carries validated, structured annotations on a target.
// It is validated at the boundary where external data enters, not treated as
// an open bag.
type Metadata struct {
	// Source names where the target came from, e.g. "trajectory" or "fixture".
	Source string `json:"source,omitempty"`
	// Labels holds free-form named annotations.
	Labels map[string]string `json:"labels,omitempty"`
	// Tags holds unnamed annotations.
	Tags []string `json:"tags,omitempty"`
}

// Validate checks the metadata for structural problems.
func (m *Metadata) Validate() error {
	if m == nil {
		return nil
	}
	for key := range m.Labels {
		if key == "" {
			return errors.New("metadata label key is empty")
		}
	}
	for _, tag := range m.Tags {
		if tag == "" {
			return errors.New("metadata tag is empty")
		}
	}
	return nil
}

// Step is a single turn of a conversation: one user input and the ordered
// agent messages it produced, possibly including tool calls and results.
type Step struct {
	// StepIndex is the zero-based position of the step in its conversation.
	StepIndex int `json:"stepIndex"`
	// Input is the user message that opened the turn.
	Input model.Message `json:"input"`
	// Output is the ordered agent messages produced during the turn.
	Output []model.Message `json:"output"`
	// Timestamp records when the step was captured.
	Timestamp time.Time `json:"timestamp,omitempty"`
	// Metadata carries optional step annotations.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// FinalResponse returns the content of the last non-tool agent message of the
// step, empty when the step produced none.
func (s *Step) FinalResponse() string {
	for i := len(s.Output) - 1; i >= 0; i-- {
		if s.Output[i].Role == model.RoleAssistant && s.Output[i].Content != "" {
			return s.Output[i].Content
		}
	}
	return ""
}

// Conversation is an ordered, immutable sequence of steps.
// Step indexes are strictly increasing from zero with no gaps.
type Conversation struct {
	// ID uniquely identifies the conversation.
	ID string `json:"id"`
	// Steps is the ordered step sequence.
	Steps []Step `json:"steps"`
	// Metadata carries optional conversation annotations.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// New builds a Conversation after validating the step index invariant.
// An empty id is replaced with a fresh UUID.
func New(id string, steps []Step, metadata *Metadata) (*Conversation, error) {
	if id == "" {
		id = uuid.New().String()
	}
	for i, step := range steps {
		if step.StepIndex != i {
			return nil, fmt.Errorf("step index %d at position %d: indexes must be contiguous from 0", step.StepIndex, i)
		}
	}
	if err := metadata.Validate(); err != nil {
		return nil, fmt.Errorf("validate metadata: %w", err)
	}
	return &Conversation{ID: id, Steps: steps, Metadata: metadata}, nil
}

// Messages flattens the conversation into a chronological message list.
func (c *Conversation) Messages() []model.Message {
	var messages []model.Message
	for _, step := range c.Steps {
		messages = append(messages, step.Input)
		messages = append(messages, step.Output...)
	}
	return messages
}

// FinalStep returns the last step, nil for an empty conversation.
func (c *Conversation) FinalStep() *Step {
	if len(c.Steps) == 0 {
		return nil
	}
	return &c.Steps[len(c.Steps)-1]
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-bench/conversation"
)

// Target is the closed set of units a metric can be computed over: one
// conversation step, one whole conversation, or one dataset item. Targets
// are immutable values.
type Target struct {
	step           *conversation.Step
	conversationID string
	conv           *conversation.Conversation
	item           *conversation.Item
}

// StepTarget wraps one conversation step for single-scope metrics.
func StepTarget(conversationID string, step conversation.Step) Target {
	return Target{step: &step, conversationID: conversationID}
}

// ConversationTarget wraps one whole conversation for multi-scope metrics.
func ConversationTarget(conv *conversation.Conversation) Target {
	return Target{conv: conv}
}

// ItemTarget wraps one dataset item for single-scope metrics.
func ItemTarget(item *conversation.Item) Target {
	return Target{item: item}
}

// Step returns the wrapped step and its conversation ID, false when the
// target is not a step.
func (t Target) Step() (*conversation.Step, string, bool) {
	return t.step, t.conversationID, t.step != nil
}

// Conversation returns the wrapped conversation, false otherwise.
func (t Target) Conversation() (*conversation.Conversation, bool) {
	return t.conv, t.conv != nil
}

// Item returns the wrapped dataset item, false otherwise.
func (t Target) Item() (*conversation.Item, bool) {
	return t.item, t.item != nil
}

// Multi reports whether the target is a whole conversation.
func (t Target) Multi() bool {
	return t.conv != nil
}

// ID identifies the target within a report.
func (t Target) ID() string {
	switch {
	case t.step != nil:
		return fmt.Sprintf("%s/%d", t.conversationID, t.step.StepIndex)
	case t.conv != nil:
		return t.conv.ID
	case t.item != nil:
		return t.item.ID
	default:
		return ""
	}
}

// Input returns the user-side text of the target: the step input, the
// item prompt, or the first user message of a conversation.
func (t Target) Input() string {
	switch {
	case t.step != nil:
		return t.step.Input.Content
	case t.item != nil:
		return t.item.Prompt
	case t.conv != nil && len(t.conv.Steps) > 0:
		return t.conv.Steps[0].Input.Content
	default:
		return ""
	}
}

// Response returns the agent-side text of the target: the step's final
// response, the item completion, or the final response of a conversation.
func (t Target) Response() string {
	switch {
	case t.step != nil:
		return t.step.FinalResponse()
	case t.item != nil:
		return t.item.Completion
	case t.conv != nil:
		if final := t.conv.FinalStep(); final != nil {
			return final.FinalResponse()
		}
		return ""
	default:
		return ""
	}
}

// Metadata returns the metadata attached to the target, nil when absent.
func (t Target) Metadata() *conversation.Metadata {
	switch {
	case t.step != nil:
		return t.step.Metadata
	case t.conv != nil:
		return t.conv.Metadata
	case t.item != nil:
		return t.item.Metadata
	default:
		return nil
	}
}

// fingerprintPayload fixes the JSON shape hashed by Fingerprint.
type fingerprintPayload struct {
	Metric         string                     `json:"metric"`
	ConversationID string                     `json:"conversationId,omitempty"`
	Step           *conversation.Step         `json:"step,omitempty"`
	Conversation   *conversation.Conversation `json:"conversation,omitempty"`
	Item           *conversation.Item         `json:"item,omitempty"`
}

// Fingerprint derives the stable cache key for one (metric, target) pair:
// a sha256 over the metric identity and the canonical JSON encoding of the
// target content.
func (t Target) Fingerprint(metricName string) string {
	payload := fingerprintPayload{
		Metric:         metricName,
		ConversationID: t.conversationID,
		Step:           t.step,
		Conversation:   t.conv,
		Item:           t.item,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Target content is plain data, marshalling cannot fail in practice.
		data = []byte(metricName + "/" + t.ID())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

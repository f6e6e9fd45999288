//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package conversation

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// ToolContractError flags tool invocations that never resolved to a result.
// It is a data-quality signal for consumers, never a metric failure.
type ToolContractError struct {
	// ConversationID identifies the conversation carrying the flagged step.
	ConversationID string
	// StepIndex identifies the flagged step.
	StepIndex int
	// CallIDs lists the unresolved tool call IDs.
	CallIDs []string
}

// Error implements the error interface.
func (e *ToolContractError) Error() string {
	return fmt.Sprintf("conversation %s step %d: unresolved tool calls [%s]",
		e.ConversationID, e.StepIndex, strings.Join(e.CallIDs, ", "))
}

// UnresolvedToolCalls pairs the step's tool invocations with tool result
// messages by call ID and returns the IDs that never resolved.
// A call resolving to more than one result is also flagged.
func UnresolvedToolCalls(step *Step) []string {
	resultCount := make(map[string]int)
	for _, message := range step.Output {
		if message.Role == model.RoleTool && message.ToolID != "" {
			resultCount[message.ToolID]++
		}
	}
	var unresolved []string
	for _, message := range step.Output {
		for _, call := range message.ToolCalls {
			if resultCount[call.ID] != 1 {
				unresolved = append(unresolved, call.ID)
			}
		}
	}
	return unresolved
}

// CheckToolContract scans every step of the conversation and accumulates one
// ToolContractError per flagged step. A nil return means the contract holds.
func CheckToolContract(c *Conversation) error {
	var result *multierror.Error
	for i := range c.Steps {
		if unresolved := UnresolvedToolCalls(&c.Steps[i]); len(unresolved) > 0 {
			result = multierror.Append(result, &ToolContractError{
				ConversationID: c.ID,
				StepIndex:      c.Steps[i].StepIndex,
				CallIDs:        unresolved,
			})
		}
	}
	return result.ErrorOrNil()
}

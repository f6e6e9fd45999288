//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package trajectory

import (
	"time"

	"trpc.group/trpc-go/trpc-agent-bench/conversation"
	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// Reason classifies why a run terminated. Exactly one reason is reported
// per run.
type Reason string

const (
	// ReasonGoalReached means a terminal step was reached, or the
	// model-graded goal check passed in loose mode.
	ReasonGoalReached Reason = "goal-reached"
	// ReasonMaxTurns means the turn budget (or the wall-clock timeout)
	// was exhausted before the goal.
	ReasonMaxTurns Reason = "max-turns"
	// ReasonPolicyViolation means a strict-mode guardrail check failed.
	ReasonPolicyViolation Reason = "policy-violation"
	// ReasonError means a model or agent invocation failed.
	ReasonError Reason = "error"
)

// Candidate is one scored candidate next step, kept for audit.
type Candidate struct {
	// StepID is the candidate step.
	StepID string `json:"stepId"`
	// Utterance is the simulated-user utterance generated for the candidate.
	Utterance string `json:"utterance"`
	// Score is the selection score assigned to the candidate, zero under
	// first-eligible selection.
	Score float64 `json:"score"`
	// Reasons explains the score, empty under first-eligible selection.
	Reasons []string `json:"reasons,omitempty"`
}

// Selection is the audit record of one candidate-step selection.
type Selection struct {
	// Method is the selection method that was applied.
	Method SelectionMethod `json:"method"`
	// Candidates lists every considered candidate with its score.
	Candidates []Candidate `json:"candidates"`
	// SelectedStepID is the step that won the selection.
	SelectedStepID string `json:"selectedStepId"`
}

// Step is one completed turn of a run. Steps are append-only with
// contiguous zero-based turn indexes.
type Step struct {
	// TurnIndex is the zero-based position of the turn.
	TurnIndex int `json:"turnIndex"`
	// UserMessage is the simulated-user utterance sent to the agent.
	UserMessage model.Message `json:"userMessage"`
	// AgentMessages are the agent messages produced in response, captured
	// verbatim including tool call and result pairs.
	AgentMessages []model.Message `json:"agentMessages"`
	// Timestamp records when the turn completed.
	Timestamp time.Time `json:"timestamp"`
	// Selection is the candidate-selection audit record for the turn.
	Selection Selection `json:"selection"`
}

// Result is the immutable terminal artifact of a run.
type Result struct {
	// Completed is true only when the reason is goal-reached.
	Completed bool `json:"completed"`
	// Reason classifies the termination.
	Reason Reason `json:"reason"`
	// Steps are the completed turns, in order. A failed turn is never
	// partially appended.
	Steps []Step `json:"steps"`
	// Summary is an optional human-readable account of the run.
	Summary string `json:"summary,omitempty"`
}

// Conversation converts the result into an immutable conversation,
// preserving step count and order exactly.
func (r *Result) Conversation(id string, metadata *conversation.Metadata) (*conversation.Conversation, error) {
	steps := make([]conversation.Step, 0, len(r.Steps))
	for _, step := range r.Steps {
		steps = append(steps, conversation.Step{
			StepIndex: step.TurnIndex,
			Input:     step.UserMessage,
			Output:    step.AgentMessages,
			Timestamp: step.Timestamp,
		})
	}
	return conversation.New(id, steps, metadata)
}

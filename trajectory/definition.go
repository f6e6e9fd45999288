//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package trajectory synthesizes multi-turn conversations by driving a
// persona-controlled simulated user against a target agent, following a
// declarative step graph with deterministic termination.
package trajectory

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// Mode selects how goal and guardrail enforcement behave during a run.
type Mode string

const (
	// ModeStrict hard-stops the run with a policy violation when a guardrail
	// compliance check fails after a turn.
	ModeStrict Mode = "strict"
	// ModeLoose tolerates guardrail drift and additionally accepts a
	// model-graded goal check as a termination signal.
	ModeLoose Mode = "loose"
)

// SelectionMethod decides among multiple candidate next steps.
type SelectionMethod string

const (
	// SelectionNone picks the first eligible candidate.
	SelectionNone SelectionMethod = "none"
	// SelectionModel scores each candidate utterance with a judge model and
	// picks the highest-scored one.
	SelectionModel SelectionMethod = "model"
)

// Persona is the behavioral profile of the simulated user.
type Persona struct {
	// Description characterizes the simulated user in natural language.
	Description string `json:"description" yaml:"description"`
	// Guardrails are behavioral constraints the simulated user must respect.
	Guardrails []string `json:"guardrails,omitempty" yaml:"guardrails,omitempty"`
}

// StepDefinition is one node of the step graph.
type StepDefinition struct {
	// ID uniquely identifies the step within its definition.
	ID string `json:"id" yaml:"id"`
	// Instruction tells the simulated user what to do at this step.
	Instruction string `json:"instruction" yaml:"instruction"`
	// Next lists the IDs of the steps reachable from this one. A step with
	// an empty Next list and Terminal false is a dead end and rejected by
	// Validate.
	Next []string `json:"next,omitempty" yaml:"next,omitempty"`
	// Terminal marks the step as a goal state: reaching it ends the run
	// with reason goal-reached.
	Terminal bool `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// Definition declares a trajectory: goal, persona, step graph and
// termination constraints. A Definition is validated before a run starts,
// never mid-turn.
type Definition struct {
	// Name identifies the definition, used for reporting.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Goal is the outcome the simulated user tries to reach.
	Goal string `json:"goal" yaml:"goal"`
	// Persona is the simulated user profile.
	Persona Persona `json:"persona" yaml:"persona"`
	// Steps is the step graph.
	Steps []StepDefinition `json:"steps" yaml:"steps"`
	// Start is the ID of the first step.
	Start string `json:"start" yaml:"start"`
	// MaxTurns bounds the number of turns. Must be positive.
	MaxTurns int `json:"maxTurns" yaml:"maxTurns"`
	// Mode selects the enforcement policy, ModeLoose when empty.
	Mode Mode `json:"mode,omitempty" yaml:"mode,omitempty"`
	// Selection selects the candidate-step selection method,
	// SelectionNone when empty.
	Selection SelectionMethod `json:"selection,omitempty" yaml:"selection,omitempty"`
}

// DefinitionError reports a malformed Definition.
type DefinitionError struct {
	// Field names the offending definition field.
	Field string
	// Reason explains what is wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("trajectory definition: field %q: %s", e.Field, e.Reason)
}

// Validate checks the definition for structural errors: dangling step
// references, a missing or unknown start, non-positive MaxTurns, no
// terminal step, unknown mode or selection method.
func (d *Definition) Validate() error {
	if d.Goal == "" {
		return &DefinitionError{Field: "goal", Reason: "goal is required"}
	}
	if d.MaxTurns <= 0 {
		return &DefinitionError{Field: "maxTurns", Reason: "maxTurns must be positive"}
	}
	if len(d.Steps) == 0 {
		return &DefinitionError{Field: "steps", Reason: "at least one step is required"}
	}
	byID := make(map[string]*StepDefinition, len(d.Steps))
	terminal := false
	for i := range d.Steps {
		step := &d.Steps[i]
		if step.ID == "" {
			return &DefinitionError{Field: "steps", Reason: fmt.Sprintf("step %d has no id", i)}
		}
		if _, ok := byID[step.ID]; ok {
			return &DefinitionError{Field: "steps", Reason: fmt.Sprintf("duplicate step id %q", step.ID)}
		}
		byID[step.ID] = step
		if step.Terminal {
			terminal = true
		}
	}
	if !terminal {
		return &DefinitionError{Field: "steps", Reason: "no terminal step declared"}
	}
	if d.Start == "" {
		return &DefinitionError{Field: "start", Reason: "start is required"}
	}
	if _, ok := byID[d.Start]; !ok {
		return &DefinitionError{Field: "start", Reason: fmt.Sprintf("start references unknown step %q", d.Start)}
	}
	for _, step := range d.Steps {
		for _, next := range step.Next {
			if _, ok := byID[next]; !ok {
				return &DefinitionError{
					Field:  "steps",
					Reason: fmt.Sprintf("step %q references unknown step %q", step.ID, next),
				}
			}
		}
		if len(step.Next) == 0 && !step.Terminal {
			return &DefinitionError{
				Field:  "steps",
				Reason: fmt.Sprintf("step %q is a dead end: no next steps and not terminal", step.ID),
			}
		}
	}
	switch d.Mode {
	case "", ModeStrict, ModeLoose:
	default:
		return &DefinitionError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", d.Mode)}
	}
	switch d.Selection {
	case "", SelectionNone, SelectionModel:
	default:
		return &DefinitionError{Field: "selection", Reason: fmt.Sprintf("unknown selection method %q", d.Selection)}
	}
	return nil
}

// mode returns the effective mode, defaulting to loose.
func (d *Definition) mode() Mode {
	if d.Mode == "" {
		return ModeLoose
	}
	return d.Mode
}

// selection returns the effective selection method, defaulting to none.
func (d *Definition) selection() SelectionMethod {
	if d.Selection == "" {
		return SelectionNone
	}
	return d.Selection
}

// step returns the step declared under id, nil when unknown.
func (d *Definition) step(id string) *StepDefinition {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}

// candidates returns the candidate steps reachable from the current
// position. Before the first turn the only candidate is the start step.
func (d *Definition) candidates(current *StepDefinition) []*StepDefinition {
	if current == nil {
		return []*StepDefinition{d.step(d.Start)}
	}
	next := make([]*StepDefinition, 0, len(current.Next))
	for _, id := range current.Next {
		next = append(next, d.step(id))
	}
	return next
}

// TargetAgent is the agent under test. Respond receives the full
// conversation history and returns the agent messages for the turn,
// possibly including tool calls and their results. Tool semantics are
// opaque to the engine.
type TargetAgent interface {
	Respond(ctx context.Context, history []model.Message) ([]model.Message, error)
}

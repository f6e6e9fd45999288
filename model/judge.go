//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rubric is structured scoring guidance handed to a judging model.
type Rubric struct {
	// Criteria lists the aspects the judge should assess.
	Criteria []RubricCriterion `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	// Scale bounds the numeric score the judge may assign.
	Scale Scale `json:"scale" yaml:"scale"`
	// Ordinals restricts the judge to one of the listed labels instead of a number.
	Ordinals []string `json:"ordinals,omitempty" yaml:"ordinals,omitempty"`
	// Examples provides worked scoring examples.
	Examples []RubricExample `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// RubricCriterion is a single named scoring criterion.
type RubricCriterion struct {
	// ID identifies the criterion.
	ID string `json:"id" yaml:"id"`
	// Description explains what the criterion measures.
	Description string `json:"description" yaml:"description"`
}

// Scale bounds the numeric score of a judgment.
type Scale struct {
	// Min is the lowest assignable score.
	Min float64 `json:"min" yaml:"min"`
	// Max is the highest assignable score.
	Max float64 `json:"max" yaml:"max"`
}

// RubricExample is a worked scoring example shown to the judge.
type RubricExample struct {
	// Input is the example content being scored.
	Input string `json:"input" yaml:"input"`
	// Score is the score the example deserves.
	Score float64 `json:"score" yaml:"score"`
	// Reasoning explains the example score.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// JudgeRequest is a structured-judgment request.
type JudgeRequest struct {
	// Prompt is the content to be judged, including any task framing.
	Prompt string `json:"prompt"`
	// Rubric augments the prompt with scoring guidance. Required.
	Rubric *Rubric `json:"rubric"`
	// GenerationConfig controls the judge model generation.
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Judgment is the parsed output of a judging model.
type Judgment struct {
	// Score is the numeric score assigned by the judge.
	Score float64 `json:"score"`
	// Ordinal is the label assigned by the judge when the rubric is ordinal.
	Ordinal string `json:"ordinal,omitempty"`
	// Reasoning is the judge's explanation, may be empty.
	Reasoning string `json:"reasoning,omitempty"`
	// Raw is the unparsed judge response.
	Raw string `json:"raw,omitempty"`
	// Timestamp records when the judgment was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Judge produces a numeric or ordinal judgment with reasoning.
type Judge interface {
	Judge(ctx context.Context, request *JudgeRequest) (*Judgment, error)
}

// modelJudge adapts a Model into a Judge by rendering a rubric-augmented
// prompt and parsing the score and reasoning out of the completion.
type modelJudge struct {
	model      Model
	generation GenerationConfig
}

// JudgeOption configures NewModelJudge.
type JudgeOption func(*modelJudge)

// WithJudgeGeneration sets the default generation config for judge calls.
func WithJudgeGeneration(generation GenerationConfig) JudgeOption {
	return func(j *modelJudge) {
		j.generation = generation
	}
}

// NewModelJudge adapts the given model into a Judge.
func NewModelJudge(model Model, opt ...JudgeOption) (Judge, error) {
	if model == nil {
		return nil, errors.New("model is nil")
	}
	j := &modelJudge{model: model}
	for _, o := range opt {
		o(j)
	}
	return j, nil
}

// Judge renders the rubric prompt, invokes the model once and parses the result.
func (j *modelJudge) Judge(ctx context.Context, request *JudgeRequest) (*Judgment, error) {
	if request == nil {
		return nil, errors.New("judge request is nil")
	}
	if request.Rubric == nil {
		return nil, errors.New("judge request rubric is nil")
	}
	generation := request.GenerationConfig
	if generation.Temperature == nil && generation.MaxTokens == nil && len(generation.Stop) == 0 {
		generation = j.generation
	}
	req := &Request{
		Messages: []Message{
			NewSystemMessage(renderRubric(request.Rubric)),
			NewUserMessage(request.Prompt),
		},
		GenerationConfig: generation,
	}
	response, err := j.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, NewInvocationError("judge", err)
	}
	judgment, err := parseJudgment(response.Message.Content, request.Rubric)
	if err != nil {
		return nil, fmt.Errorf("parse judgment: %w", err)
	}
	judgment.Timestamp = time.Now()
	return judgment, nil
}

// renderRubric renders the scoring instructions handed to the judge model.
func renderRubric(rubric *Rubric) string {
	var b strings.Builder
	b.WriteString("You are an impartial evaluator. Assess the content below against the rubric.\n")
	if len(rubric.Criteria) > 0 {
		b.WriteString("Criteria:\n")
		for _, criterion := range rubric.Criteria {
			fmt.Fprintf(&b, "- %s: %s\n", criterion.ID, criterion.Description)
		}
	}
	if len(rubric.Ordinals) > 0 {
		fmt.Fprintf(&b, "Answer with exactly one label out of: %s.\n", strings.Join(rubric.Ordinals, ", "))
		b.WriteString("Respond in the format:\nLabel: <label>\nReasoning: <one short paragraph>\n")
	} else {
		fmt.Fprintf(&b, "Assign a score between %g and %g.\n", rubric.Scale.Min, rubric.Scale.Max)
		b.WriteString("Respond in the format:\nScore: <number>\nReasoning: <one short paragraph>\n")
	}
	if len(rubric.Examples) > 0 {
		b.WriteString("Examples:\n")
		for _, example := range rubric.Examples {
			fmt.Fprintf(&b, "- input: %s\n  score: %g\n", example.Input, example.Score)
			if example.Reasoning != "" {
				fmt.Fprintf(&b, "  reasoning: %s\n", example.Reasoning)
			}
		}
	}
	return b.String()
}

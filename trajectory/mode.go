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
	"context"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// modePolicy decides termination after a completed turn. Reaching a
// terminal step always ends the run; what else counts as reached or
// violated depends on the mode.
type modePolicy interface {
	check(ctx context.Context, e *Engine, r *run, selected *StepDefinition, step Step) (reached, violated bool, err error)
}

func policyFor(mode Mode) modePolicy {
	if mode == ModeStrict {
		return strictPolicy{}
	}
	return loosePolicy{}
}

// strictPolicy terminates on terminal steps and hard-stops with a policy
// violation when the guardrail compliance check fails. It never grades the
// goal with a model.
type strictPolicy struct{}

func (strictPolicy) check(ctx context.Context, e *Engine, r *run, selected *StepDefinition, step Step) (bool, bool, error) {
	if selected.Terminal {
		return true, false, nil
	}
	if e.opts.guardrailJudge == nil || len(r.def.Persona.Guardrails) == 0 {
		return false, false, nil
	}
	judgment, err := e.opts.guardrailJudge.Judge(ctx, &model.JudgeRequest{
		Prompt: guardrailCheckPrompt(r.def, step),
		Rubric: guardrailRubric,
	})
	if err != nil {
		return false, false, err
	}
	return false, judgment.Score < binaryPassScore, nil
}

// loosePolicy tolerates guardrail drift and additionally accepts a
// model-graded goal check, so a run can complete before reaching a
// terminal step.
type loosePolicy struct{}

func (loosePolicy) check(ctx context.Context, e *Engine, r *run, selected *StepDefinition, _ Step) (bool, bool, error) {
	if selected.Terminal {
		return true, false, nil
	}
	if e.opts.goalJudge == nil {
		return false, false, nil
	}
	judgment, err := e.opts.goalJudge.Judge(ctx, &model.JudgeRequest{
		Prompt: goalCheckPrompt(r.def, r.sink.History()),
		Rubric: goalRubric,
	})
	if err != nil {
		return false, false, err
	}
	return judgment.Score >= binaryPassScore, false, nil
}

// binaryPassScore is the cutoff for the binary check rubrics below.
const binaryPassScore = 0.5

var goalRubric = &model.Rubric{
	Criteria: []model.RubricCriterion{{
		ID:          "goal_achievement",
		Description: "The user's stated goal has been fully achieved by the end of the conversation.",
	}},
	Scale: model.Scale{Min: 0, Max: 1},
}

var guardrailRubric = &model.Rubric{
	Criteria: []model.RubricCriterion{{
		ID:          "guardrail_compliance",
		Description: "The turn complies with every listed constraint. Score 1 for full compliance, 0 for any violation.",
	}},
	Scale: model.Scale{Min: 0, Max: 1},
}

var selectionRubric = &model.Rubric{
	Criteria: []model.RubricCriterion{{
		ID:          "goal_progress",
		Description: "The candidate message moves the conversation toward the stated goal.",
	}},
	Scale: model.Scale{Min: 0, Max: 1},
}

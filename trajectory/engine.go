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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-agent-bench/log"
	"trpc.group/trpc-go/trpc-agent-bench/model"
	"trpc.group/trpc-go/trpc-agent-bench/storage"
)

// Engine executes trajectory definitions turn by turn, using a model as
// the simulated user and a TargetAgent as the system under test.
type Engine struct {
	userModel model.Model
	opts      options
}

type options struct {
	sink           Sink
	goalJudge      model.Judge
	guardrailJudge model.Judge
	selectionJudge model.Judge
	recorder       storage.Recorder
	conversationID string
	timeout        time.Duration
	historyLimit   int
	generation     model.GenerationConfig
}

// Option configures an Engine.
type Option func(*options)

// WithSink sets the history sink for the run. A sink must not be shared
// across concurrent runs. When unset, each run gets a fresh MemorySink.
func WithSink(sink Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithGoalJudge sets the judge used for the loose-mode goal check. Without
// it, loose-mode runs terminate only on terminal steps or the turn budget.
func WithGoalJudge(judge model.Judge) Option {
	return func(o *options) {
		o.goalJudge = judge
	}
}

// WithGuardrailJudge sets the judge used for the strict-mode guardrail
// compliance check after every turn.
func WithGuardrailJudge(judge model.Judge) Option {
	return func(o *options) {
		o.guardrailJudge = judge
	}
}

// WithSelectionJudge sets the judge used to score candidate utterances
// under model selection.
func WithSelectionJudge(judge model.Judge) Option {
	return func(o *options) {
		o.selectionJudge = judge
	}
}

// WithRecorder persists every completed step through the recorder, keyed
// by conversation ID and turn index.
func WithRecorder(recorder storage.Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// WithConversationID sets the conversation ID used for recorder keys and
// the derived conversation. A fresh UUID is used when unset.
func WithConversationID(id string) Option {
	return func(o *options) {
		o.conversationID = id
	}
}

// WithTimeout bounds the wall-clock duration of a run. On expiry the run
// terminates with reason max-turns, preserving all completed steps.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithHistoryLimit bounds how many prior turns simulated-user prompts
// include.
func WithHistoryLimit(limit int) Option {
	return func(o *options) {
		o.historyLimit = limit
	}
}

// WithGeneration sets the generation config for simulated-user calls.
func WithGeneration(generation model.GenerationConfig) Option {
	return func(o *options) {
		o.generation = generation
	}
}

// New creates an Engine driven by the given simulated-user model.
func New(userModel model.Model, opt ...Option) (*Engine, error) {
	if userModel == nil {
		return nil, errors.New("trajectory: user model is required")
	}
	opts := options{historyLimit: defaultHistoryLimit}
	for _, o := range opt {
		o(&opts)
	}
	return &Engine{userModel: userModel, opts: opts}, nil
}

// run carries the mutable state of one run.
type run struct {
	def            *Definition
	target         TargetAgent
	policy         modePolicy
	sink           Sink
	conversationID string
	steps          []Step
	current        *StepDefinition
}

// Run executes the definition against the target agent until termination.
// Structural problems (an invalid definition, a nil target) return a
// non-nil error; model and agent failures mid-run terminate the run with
// reason error and a nil error, preserving all completed steps.
func (e *Engine) Run(ctx context.Context, def *Definition, target TargetAgent) (*Result, error) {
	if def == nil {
		return nil, errors.New("trajectory: definition is required")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.New("trajectory: target agent is required")
	}
	if e.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, e.opts.timeout, errRunBudget)
		defer cancel()
	}
	r := &run{
		def:            def,
		target:         target,
		policy:         policyFor(def.mode()),
		sink:           e.opts.sink,
		conversationID: e.opts.conversationID,
	}
	if r.sink == nil {
		r.sink = NewMemorySink()
	}
	if r.conversationID == "" {
		r.conversationID = uuid.New().String()
	}
	log.Debugf("trajectory run %s: goal %q, maxTurns %d, mode %s",
		r.conversationID, def.Goal, def.MaxTurns, def.mode())
	return e.loop(ctx, r)
}

// loop is the per-turn algorithm. It returns a terminal Result for every
// non-structural outcome.
func (e *Engine) loop(ctx context.Context, r *run) (*Result, error) {
	for turnIndex := 0; turnIndex < r.def.MaxTurns; turnIndex++ {
		if expired(ctx) {
			return r.finish(ReasonMaxTurns), nil
		}
		selection, err := e.selectCandidate(ctx, r)
		if err != nil {
			return r.fail(ctx, err), nil
		}
		selected := r.def.step(selection.SelectedStepID)
		utterance := selectedUtterance(selection)
		userMessage := model.NewUserMessage(utterance)
		agentMessages, err := r.target.Respond(ctx, append(r.historyMessages(), userMessage))
		if err != nil {
			return r.fail(ctx, fmt.Errorf("agent respond: %w", err)), nil
		}
		step := Step{
			TurnIndex:     turnIndex,
			UserMessage:   userMessage,
			AgentMessages: agentMessages,
			Timestamp:     time.Now(),
			Selection:     selection,
		}
		r.append(ctx, step, e.opts.recorder)
		r.current = selected

		reached, violated, err := r.policy.check(ctx, e, r, selected, step)
		if err != nil {
			return r.fail(ctx, err), nil
		}
		if reached {
			return r.finish(ReasonGoalReached), nil
		}
		if violated {
			return r.finish(ReasonPolicyViolation), nil
		}
	}
	return r.finish(ReasonMaxTurns), nil
}

// selectCandidate enumerates candidate next steps, generates one utterance
// per candidate and applies the declared selection method.
func (e *Engine) selectCandidate(ctx context.Context, r *run) (Selection, error) {
	steps := r.def.candidates(r.current)
	history := r.sink.History()
	candidates := make([]Candidate, 0, len(steps))
	for _, step := range steps {
		utterance, err := e.generateUtterance(ctx, r.def, step, history)
		if err != nil {
			return Selection{}, err
		}
		candidates = append(candidates, Candidate{StepID: step.ID, Utterance: utterance})
	}
	selection := Selection{Method: SelectionNone, Candidates: candidates}
	if len(candidates) > 1 && r.def.selection() == SelectionModel && e.opts.selectionJudge != nil {
		selection.Method = SelectionModel
		if err := e.scoreCandidates(ctx, r.def, history, selection.Candidates); err != nil {
			return Selection{}, err
		}
	}
	best := 0
	for i, candidate := range selection.Candidates {
		if candidate.Score > selection.Candidates[best].Score {
			best = i
		}
	}
	selection.SelectedStepID = selection.Candidates[best].StepID
	return selection, nil
}

// generateUtterance invokes the simulated-user model for one candidate.
func (e *Engine) generateUtterance(ctx context.Context, def *Definition, step *StepDefinition, history []Step) (string, error) {
	request := &model.Request{
		Messages:         []model.Message{model.NewUserMessage(userPrompt(def, step, history, e.opts.historyLimit))},
		GenerationConfig: e.opts.generation,
	}
	response, err := e.userModel.GenerateContent(ctx, request)
	if err != nil {
		return "", fmt.Errorf("simulated user for step %q: %w", step.ID, err)
	}
	return response.Message.Content, nil
}

// scoreCandidates asks the selection judge to score each candidate
// utterance against the goal.
func (e *Engine) scoreCandidates(ctx context.Context, def *Definition, history []Step, candidates []Candidate) error {
	for i := range candidates {
		judgment, err := e.opts.selectionJudge.Judge(ctx, &model.JudgeRequest{
			Prompt: selectionPrompt(def, candidates[i].Utterance, history),
			Rubric: selectionRubric,
		})
		if err != nil {
			return fmt.Errorf("score candidate %q: %w", candidates[i].StepID, err)
		}
		candidates[i].Score = judgment.Score
		if judgment.Reasoning != "" {
			candidates[i].Reasons = []string{judgment.Reasoning}
		}
	}
	return nil
}

// historyMessages flattens the sink history into a chronological message
// list for the target agent.
func (r *run) historyMessages() []model.Message {
	history := r.sink.History()
	messages := make([]model.Message, 0, len(history)*2)
	for _, step := range history {
		messages = append(messages, step.UserMessage)
		messages = append(messages, step.AgentMessages...)
	}
	return messages
}

// append records a completed turn in the run, the sink and the optional
// recorder. A recorder failure is logged, not fatal.
func (r *run) append(ctx context.Context, step Step, recorder storage.Recorder) {
	r.steps = append(r.steps, step)
	r.sink.Append(step)
	if recorder == nil {
		return
	}
	if err := recorder.Put(ctx, storage.StepKey(r.conversationID, step.TurnIndex), step); err != nil {
		log.Warnf("trajectory run %s: record step %d: %v", r.conversationID, step.TurnIndex, err)
	}
}

// finish seals the run with the given reason.
func (r *run) finish(reason Reason) *Result {
	return &Result{
		Completed: reason == ReasonGoalReached,
		Reason:    reason,
		Steps:     r.steps,
		Summary:   fmt.Sprintf("%d turn(s), %s", len(r.steps), reason),
	}
}

// fail seals the run after a failed invocation. Expiry of the run's own
// wall-clock budget is reported as max-turns rather than error; a deadline
// or cancellation imposed by the caller stays an error.
func (r *run) fail(ctx context.Context, err error) *Result {
	if expired(ctx) {
		log.Debugf("trajectory run %s: budget expired after %d step(s)", r.conversationID, len(r.steps))
		return r.finish(ReasonMaxTurns)
	}
	log.Warnf("trajectory run %s: %v", r.conversationID, err)
	result := r.finish(ReasonError)
	result.Summary = fmt.Sprintf("%d turn(s), %s: %v", len(r.steps), ReasonError, err)
	return result
}

// errRunBudget marks expiry of the timeout set through WithTimeout, so it
// can be told apart from deadlines inherited from the caller's context.
var errRunBudget = errors.New("trajectory: run wall-clock budget exhausted")

func expired(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errRunBudget)
}

func selectedUtterance(selection Selection) string {
	for _, candidate := range selection.Candidates {
		if candidate.StepID == selection.SelectedStepID {
			return candidate.Utterance
		}
	}
	return ""
}

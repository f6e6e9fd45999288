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
	"fmt"
	"strings"
)

// defaultHistoryLimit bounds how many prior turns a prompt includes.
const defaultHistoryLimit = 10

// userPrompt builds the simulated-user prompt for one candidate step from
// persona, guardrails, step instruction, goal and truncated history.
func userPrompt(def *Definition, step *StepDefinition, history []Step, historyLimit int) string {
	var b strings.Builder
	b.WriteString("You are role-playing a user talking to an AI assistant.\n\n")
	if def.Persona.Description != "" {
		b.WriteString("Your persona:\n")
		b.WriteString(def.Persona.Description)
		b.WriteString("\n\n")
	}
	if len(def.Persona.Guardrails) > 0 {
		b.WriteString("You must respect these constraints:\n")
		for _, guardrail := range def.Persona.Guardrails {
			b.WriteString("- ")
			b.WriteString(guardrail)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Your overall goal: ")
	b.WriteString(def.Goal)
	b.WriteString("\n\n")
	writeHistory(&b, history, historyLimit)
	b.WriteString("Your next move: ")
	b.WriteString(step.Instruction)
	b.WriteString("\n\nReply with the exact message you would send as the user. " +
		"Output only the message, nothing else.")
	return b.String()
}

// writeHistory appends the most recent turns to the prompt, oldest first.
func writeHistory(b *strings.Builder, history []Step, limit int) {
	if len(history) == 0 {
		return
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	start := 0
	if len(history) > limit {
		start = len(history) - limit
		fmt.Fprintf(b, "Conversation so far (last %d of %d turns):\n", limit, len(history))
	} else {
		b.WriteString("Conversation so far:\n")
	}
	for _, step := range history[start:] {
		b.WriteString("User: ")
		b.WriteString(step.UserMessage.Content)
		b.WriteString("\n")
		for _, message := range step.AgentMessages {
			if message.Content == "" {
				continue
			}
			b.WriteString("Assistant: ")
			b.WriteString(message.Content)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

// goalCheckPrompt asks a judge whether the goal was reached, for loose-mode
// termination.
func goalCheckPrompt(def *Definition, history []Step) string {
	var b strings.Builder
	b.WriteString("Judge whether the user's goal has been fully achieved in the " +
		"conversation below.\n\nGoal: ")
	b.WriteString(def.Goal)
	b.WriteString("\n\n")
	writeHistory(&b, history, 0)
	return b.String()
}

// guardrailCheckPrompt asks a judge whether the latest turn violated any
// guardrail, for strict-mode enforcement.
func guardrailCheckPrompt(def *Definition, step Step) string {
	var b strings.Builder
	b.WriteString("Judge whether the latest conversation turn below complies " +
		"with every one of these constraints:\n")
	for _, guardrail := range def.Persona.Guardrails {
		b.WriteString("- ")
		b.WriteString(guardrail)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	writeHistory(&b, []Step{step}, 0)
	return b.String()
}

// selectionPrompt asks a judge how well a candidate utterance advances the
// goal, for model-scored candidate selection.
func selectionPrompt(def *Definition, utterance string, history []Step) string {
	var b strings.Builder
	b.WriteString("Judge how well the candidate user message below advances " +
		"this goal.\n\nGoal: ")
	b.WriteString(def.Goal)
	b.WriteString("\n\n")
	writeHistory(&b, history, 0)
	b.WriteString("Candidate message: ")
	b.WriteString(utterance)
	b.WriteString("\n")
	return b.String()
}

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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		field  string
	}{
		{
			name:   "valid",
			mutate: func(*Definition) {},
		},
		{
			name:   "missing goal",
			mutate: func(d *Definition) { d.Goal = "" },
			field:  "goal",
		},
		{
			name:   "non-positive maxTurns",
			mutate: func(d *Definition) { d.MaxTurns = -1 },
			field:  "maxTurns",
		},
		{
			name:   "unknown start",
			mutate: func(d *Definition) { d.Start = "nowhere" },
			field:  "start",
		},
		{
			name:   "dangling next reference",
			mutate: func(d *Definition) { d.Steps[0].Next = []string{"ghost"} },
			field:  "steps",
		},
		{
			name: "no terminal step",
			mutate: func(d *Definition) {
				d.Steps[1].Terminal = false
				d.Steps[1].Next = []string{"s1"}
			},
			field: "steps",
		},
		{
			name: "dead end step",
			mutate: func(d *Definition) {
				d.Steps[0].Next = nil
			},
			field: "steps",
		},
		{
			name: "duplicate step id",
			mutate: func(d *Definition) {
				d.Steps = append(d.Steps, StepDefinition{ID: "s1", Instruction: "again", Terminal: true})
			},
			field: "steps",
		},
		{
			name:   "unknown mode",
			mutate: func(d *Definition) { d.Mode = "fuzzy" },
			field:  "mode",
		},
		{
			name:   "unknown selection",
			mutate: func(d *Definition) { d.Selection = "vote" },
			field:  "selection",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := twoStepDefinition()
			tt.mutate(def)
			err := def.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var defErr *DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Equal(t, tt.field, defErr.Field)
		})
	}
}

func TestLoadDefinition(t *testing.T) {
	const doc = `
name: booking
goal: book a table for two
persona:
  description: a polite diner
  guardrails:
    - never reveal personal data
steps:
  - id: s1
    instruction: ask for availability
    next: [s2]
  - id: s2
    instruction: confirm the booking
    terminal: true
start: s1
maxTurns: 5
mode: strict
selection: model
`
	path := filepath.Join(t.TempDir(), "booking.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, "booking", def.Name)
	assert.Equal(t, "book a table for two", def.Goal)
	assert.Equal(t, []string{"never reveal personal data"}, def.Persona.Guardrails)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, []string{"s2"}, def.Steps[0].Next)
	assert.True(t, def.Steps[1].Terminal)
	assert.Equal(t, ModeStrict, def.Mode)
	assert.Equal(t, SelectionModel, def.Selection)
	assert.Equal(t, 5, def.MaxTurns)
}

func TestLoadDefinitionInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("goal: g\nsteps: []\nstart: s\nmaxTurns: 1\n"), 0o644))

	_, err := LoadDefinition(path)
	var defErr *DefinitionError
	assert.ErrorAs(t, err, &defErr)
}

func TestParseDefinitionMalformedYAML(t *testing.T) {
	_, err := ParseDefinition([]byte("goal: [unbalanced"))
	assert.Error(t, err)
}

func TestMemorySinkAndNoopSink(t *testing.T) {
	memory := NewMemorySink()
	memory.Append(Step{TurnIndex: 0})
	memory.Append(Step{TurnIndex: 1})
	require.Len(t, memory.History(), 2)
	assert.Equal(t, 1, memory.History()[1].TurnIndex)

	noop := NewNoopSink()
	noop.Append(Step{TurnIndex: 0})
	assert.Empty(t, noop.History())
}

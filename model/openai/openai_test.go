//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

func TestConvertMessages(t *testing.T) {
	messages := []model.Message{
		model.NewSystemMessage("you are a weather assistant"),
		model.NewUserMessage("what's the weather in Shenzhen?"),
		{
			Role: model.RoleAssistant,
			ToolCalls: []model.ToolCall{{
				ID:   "call-1",
				Type: "function",
				Function: model.FunctionCall{
					Name:      "lookup_weather",
					Arguments: []byte(`{"city":"Shenzhen"}`),
				},
			}},
		},
		model.NewToolMessage("call-1", "lookup_weather", `{"forecast":"sunny"}`),
	}
	converted := convertMessages(messages)
	require.Len(t, converted, 4)
	assert.NotNil(t, converted[0].OfSystem)
	assert.NotNil(t, converted[1].OfUser)
	require.NotNil(t, converted[2].OfAssistant)
	require.Len(t, converted[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "lookup_weather", converted[2].OfAssistant.ToolCalls[0].Function.Name)
	require.NotNil(t, converted[3].OfTool)
	assert.Equal(t, "call-1", converted[3].OfTool.ToolCallID)
}

func TestBuildChatRequest(t *testing.T) {
	m := New("gpt-4o-mini", WithAPIKey("test-key"))
	temperature := 0.2
	maxTokens := 64
	chatRequest := m.buildChatRequest(&model.Request{
		Messages: []model.Message{model.NewUserMessage("hello")},
		GenerationConfig: model.GenerationConfig{
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Stop:        []string{"END"},
		},
	})
	assert.Equal(t, "gpt-4o-mini", string(chatRequest.Model))
	require.Len(t, chatRequest.Messages, 1)
	assert.Equal(t, 0.2, chatRequest.Temperature.Value)
	assert.Equal(t, int64(64), chatRequest.MaxCompletionTokens.Value)
	assert.Equal(t, "END", chatRequest.Stop.OfString.Value)
}

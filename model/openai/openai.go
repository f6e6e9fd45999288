//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package openai provides an OpenAI-compatible implementation of model.Model.
package openai

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-agent-bench/model"
)

// defaultAPIKeyEnv is the environment variable consulted when no API key option is given.
const defaultAPIKeyEnv = "OPENAI_API_KEY"

// options contains configuration for the OpenAI model.
type options struct {
	apiKey  string
	baseURL string
	extra   []openaiopt.RequestOption
}

// Option configures the OpenAI model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL sets the base URL for OpenAI-compatible endpoints.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithRequestOptions appends raw client request options.
func WithRequestOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// Model implements model.Model on top of the OpenAI chat completions API.
type Model struct {
	name   string
	client openai.Client
}

var _ model.Model = (*Model)(nil)

// New creates an OpenAI-backed model with the given model name.
func New(name string, opt ...Option) *Model {
	o := &options{}
	for _, op := range opt {
		op(o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv(defaultAPIKeyEnv)
	}
	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.extra...)
	return &Model{
		name:   name,
		client: openai.NewClient(clientOpts...),
	}
}

// GenerateContent performs a single non-streaming chat completion.
func (m *Model) GenerateContent(ctx context.Context, request *model.Request) (*model.Response, error) {
	if request == nil {
		return nil, errors.New("request is nil")
	}
	chatRequest := m.buildChatRequest(request)
	chatCompletion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		return nil, model.NewInvocationError("generate", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, model.NewInvocationError("generate", errors.New("no choices in completion"))
	}
	choice := chatCompletion.Choices[0]
	message := model.Message{
		Role:    model.RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, toolCall := range choice.Message.ToolCalls {
		message.ToolCalls = append(message.ToolCalls, model.ToolCall{
			ID:   toolCall.ID,
			Type: string(toolCall.Type),
			Function: model.FunctionCall{
				Name:      toolCall.Function.Name,
				Arguments: []byte(toolCall.Function.Arguments),
			},
		})
	}
	return &model.Response{Message: message, Timestamp: time.Now()}, nil
}

// buildChatRequest converts a model.Request to OpenAI request params.
func (m *Model) buildChatRequest(request *model.Request) openai.ChatCompletionNewParams {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(request.Messages),
	}
	generation := request.GenerationConfig
	if generation.Temperature != nil {
		chatRequest.Temperature = openai.Float(*generation.Temperature)
	}
	if generation.MaxTokens != nil {
		// MaxTokens is deprecated and not compatible with o-series models.
		// Use MaxCompletionTokens instead.
		chatRequest.MaxCompletionTokens = openai.Int(int64(*generation.MaxTokens))
	}
	if len(generation.Stop) > 0 {
		// Use the first stop string for simplicity.
		chatRequest.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfString: openai.String(generation.Stop[0]),
		}
	}
	return chatRequest
}

// convertMessages converts messages to OpenAI message params.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			}
		case model.RoleAssistant:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCalls: convertToolCalls(msg.ToolCalls),
				},
			}
		case model.RoleTool:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolID,
				},
			}
		default:
			// Default to user message if role is unknown.
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			}
		}
	}
	return result
}

// convertToolCalls converts tool calls to OpenAI tool call params.
func convertToolCalls(toolCalls []model.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, toolCall := range toolCalls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: toolCall.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      toolCall.Function.Name,
				Arguments: string(toolCall.Function.Arguments),
			},
		})
	}
	return result
}

//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package model provides the language-model capability consumed by the
// trajectory engine and model-computed metrics.
package model

import (
	"context"
	"fmt"
	"time"
)

// Role represents the role of the message author.
type Role string

const (
	// RoleSystem is the system role.
	RoleSystem Role = "system"
	// RoleUser is the user role.
	RoleUser Role = "user"
	// RoleAssistant is the assistant role.
	RoleAssistant Role = "assistant"
	// RoleTool is the tool role.
	RoleTool Role = "tool"
)

// Message represents a single message exchanged with a model or an agent.
type Message struct {
	// Role is the role of the message author.
	Role Role `json:"role"`
	// Content is the message content.
	Content string `json:"content,omitempty"`
	// ToolID is the ID of the tool call answered by a tool response message.
	ToolID string `json:"toolId,omitempty"`
	// ToolName is the name of the tool answered by a tool response message.
	ToolName string `json:"toolName,omitempty"`
	// ToolCalls is the optional tool calls requested by an assistant message.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	// ID is the tool call identifier returned by the model.
	ID string `json:"id,omitempty"`
	// Type of the tool. Currently only `function` is used.
	Type string `json:"type"`
	// Function holds the function name and arguments.
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and raw JSON arguments of a tool call.
type FunctionCall struct {
	// Name is the function name.
	Name string `json:"name"`
	// Arguments is the raw JSON argument payload.
	Arguments []byte `json:"arguments,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool response message for the given tool call ID.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{Role: RoleTool, ToolID: toolID, ToolName: toolName, Content: content}
}

// GenerationConfig controls model generation.
type GenerationConfig struct {
	// Temperature for the model.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens for the model response.
	MaxTokens *int `json:"maxTokens,omitempty"`
	// Stop sequences for the model.
	Stop []string `json:"stop,omitempty"`
}

// Request is a content generation request.
type Request struct {
	// Messages is the conversation context, oldest first.
	Messages []Message `json:"messages"`
	// GenerationConfig controls the generation.
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Response is a content generation response.
type Response struct {
	// Message is the generated assistant message.
	Message Message `json:"message"`
	// Timestamp records when the response was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Model is the interface for all language models.
//
// Implementations must not retry failed calls: retry policy belongs to the
// caller of the capability, not the capability itself.
type Model interface {
	GenerateContent(ctx context.Context, request *Request) (*Response, error)
}

// InvocationError reports a failed language-model call.
type InvocationError struct {
	// Op names the invocation that failed, e.g. "generate" or "judge".
	Op string
	// Err is the underlying transport or provider error.
	Err error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("model invocation %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// NewInvocationError wraps err as a model invocation failure.
func NewInvocationError(op string, err error) *InvocationError {
	return &InvocationError{Op: op, Err: err}
}

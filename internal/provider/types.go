// Package provider adapts hosted chat models with function calling to one
// small request/response shape used by the runner.
package provider

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a model request to invoke a tool. Input is the raw JSON arguments.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one conversation entry. Assistant messages may carry ToolCalls;
// user messages may carry ToolResults answering the preceding assistant message.
type Message struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// UserText builds a plain user message.
func UserText(text string) Message { return Message{Role: RoleUser, Text: text} }

// ToolSpec describes a callable tool to the model.
type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Schema      *jsonschema.Schema `json:"schema"`
}

// ToolChoice constrains whether the model may call tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = ""
	ToolChoiceNone ToolChoice = "none"
)

type Request struct {
	Model       string     `json:"model"`
	System      string     `json:"system,omitempty"`
	Messages    []Message  `json:"messages"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	ToolChoice  ToolChoice `json:"tool_choice,omitempty"`
	MaxTokens   int        `json:"max_tokens"`
	Temperature float64    `json:"temperature"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// Message returns the assistant message to append to the conversation.
func (r *Response) Message() Message {
	return Message{Role: RoleAssistant, Text: r.Text, ToolCalls: r.ToolCalls}
}

// Client completes one chat round.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
	DefaultModel() string
}

// parameters renders a tool schema as the plain object schema both APIs accept.
func parameters(s *jsonschema.Schema) map[string]any {
	out := map[string]any{"type": "object"}
	if s == nil {
		out["properties"] = map[string]any{}
		return out
	}
	if s.Properties != nil && s.Properties.Len() > 0 {
		out["properties"] = s.Properties
	} else {
		out["properties"] = map[string]any{}
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func rawOrEmpty(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return json.RawMessage(`{}`)
	}
	return in
}

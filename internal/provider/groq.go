package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	GroqDefaultModel = "meta-llama/llama-4-maverick-17b-128e-instruct"
)

// Groq talks to Groq's OpenAI-compatible chat completions endpoint.
type Groq struct {
	client *openai.Client
}

// NewGroq builds a client. An empty baseURL selects Groq; hc may be nil.
func NewGroq(apiKey, baseURL string, hc *http.Client) *Groq {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = GroqBaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	return &Groq{client: openai.NewClientWithConfig(cfg)}
}

func (g *Groq) Name() string         { return "groq" }
func (g *Groq) DefaultModel() string { return GroqDefaultModel }

func (g *Groq) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = GroqDefaultModel
	}
	creq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    g.messages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: temperature32(req.Temperature),
	}
	if len(req.Tools) > 0 {
		creq.Tools = make([]openai.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			creq.Tools = append(creq.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  parameters(t.Schema),
				},
			})
		}
		if req.ToolChoice == ToolChoiceNone {
			creq.ToolChoice = "none"
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("groq: %s (status %d)", apiErr.Message, apiErr.HTTPStatusCode)
		}
		return nil, fmt.Errorf("groq: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("groq: response has no choices")
	}

	choice := resp.Choices[0]
	out := &Response{
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: rawOrEmpty(json.RawMessage(tc.Function.Arguments)),
		})
	}
	return out, nil
}

func (g *Groq) messages(req Request) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
			for _, c := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   c.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      c.Name,
						Arguments: string(rawOrEmpty(c.Input)),
					},
				})
			}
			out = append(out, msg)
		default:
			// Tool results travel as one "tool" message per call.
			for _, r := range m.ToolResults {
				content := r.Content
				if r.IsError {
					content = "error: " + content
				}
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    content,
					ToolCallID: r.CallID,
				})
			}
			if m.Text != "" {
				out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
			}
		}
	}
	return out
}

// temperature32 keeps an explicit zero on the wire: the client drops a
// literal 0 as unset, which would select the provider's default of 1.
func temperature32(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

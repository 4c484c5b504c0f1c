package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const AnthropicDefaultModel = anthropic.ModelClaude3_7SonnetLatest

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic builds a client. Empty apiKey falls back to ANTHROPIC_API_KEY
// via the SDK; hc may be nil.
func NewAnthropic(apiKey, baseURL string, hc *http.Client) *Anthropic {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return &Anthropic{client: anthropic.NewClient(opts...)}
}

func (a *Anthropic) Name() string         { return "anthropic" }
func (a *Anthropic) DefaultModel() string { return string(AnthropicDefaultModel) }

func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	model := anthropic.Model(req.Model)
	if req.Model == "" {
		model = AnthropicDefaultModel
	}
	params := anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   int64(req.MaxTokens),
		Messages:    a.messages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	// The API requires tool definitions whenever the history holds tool_use
	// blocks, so tools stay declared and ToolChoiceNone forbids new calls.
	if len(req.Tools) > 0 {
		params.Tools = make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			p := parameters(t.Schema)
			schema := anthropic.ToolInputSchemaParam{Properties: p["properties"]}
			if required, ok := p["required"].([]string); ok {
				schema.Required = required
			}
			params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			}})
		}
		if req.ToolChoice == ToolChoiceNone {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	out := &Response{
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += v.Text
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to the tool implementation
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:    v.ID,
				Name:  v.Name,
				Input: rawOrEmpty(json.RawMessage(v.JSON.Input.Raw())),
			})
		}
	}
	return out, nil
}

func (a *Anthropic) messages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		switch m.Role {
		case RoleAssistant:
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    c.ID,
					Name:  c.Name,
					Input: rawOrEmpty(c.Input),
				}})
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			// tool_result blocks must lead the user message
			for _, r := range m.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
			}
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

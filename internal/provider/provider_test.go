package provider_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/invopop/jsonschema"
)

type capture struct {
	url  string
	body []byte
}

type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if f.captured != nil {
		f.captured.url = req.URL.String()
		f.captured.body = b
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func httpClient(rt http.RoundTripper) *http.Client { return &http.Client{Transport: rt} }

func calendarSpec() provider.ToolSpec {
	r := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	type in struct {
		Title string `json:"title" jsonschema:"description=Event title"`
	}
	return provider.ToolSpec{Name: "query_calendar", Description: "calendar", Schema: r.Reflect(in{})}
}

const groqToolCallResp = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "m",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{"id": "c1", "type": "function", "function": {"name": "query_calendar", "arguments": "{\"title\":\"Lab\"}"}}]
		},
		"finish_reason": "tool_calls"
	}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func TestGroq_Complete_ParsesToolCalls(t *testing.T) {
	capReq := &capture{}
	cli := provider.NewGroq("k", "http://groq.test/v1", httpClient(&fakeTransport{respStatus: 200, respBody: []byte(groqToolCallResp), captured: capReq}))

	resp, err := cli.Complete(context.Background(), provider.Request{
		System:   "sys",
		Messages: []provider.Message{provider.UserText("when is the lab?")},
		Tools:    []provider.ToolSpec{calendarSpec()},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasSuffix(capReq.url, "/chat/completions") {
		t.Errorf("url = %q", capReq.url)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "query_calendar" || resp.ToolCalls[0].ID != "c1" {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	if string(resp.ToolCalls[0].Input) != `{"title":"Lab"}` {
		t.Errorf("input = %s", resp.ToolCalls[0].Input)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 5 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	var body struct {
		Model       string   `json:"model"`
		Temperature *float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Tools []struct {
			Type     string `json:"type"`
			Function struct {
				Name       string         `json:"name"`
				Parameters map[string]any `json:"parameters"`
			} `json:"function"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(capReq.body, &body); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, capReq.body)
	}
	if body.Model != provider.GroqDefaultModel {
		t.Errorf("model = %q", body.Model)
	}
	if body.Temperature == nil || *body.Temperature <= 0 || *body.Temperature > 1e-6 {
		t.Errorf("temperature should be a tiny non-zero value, got %v", body.Temperature)
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", body.Messages)
	}
	if len(body.Tools) != 1 || body.Tools[0].Function.Name != "query_calendar" {
		t.Fatalf("tools = %+v", body.Tools)
	}
	if body.Tools[0].Function.Parameters["type"] != "object" {
		t.Errorf("parameters type = %v", body.Tools[0].Function.Parameters["type"])
	}
}

func TestGroq_Complete_SecondRoundSendsToolMessages(t *testing.T) {
	capReq := &capture{}
	respBody := `{"choices":[{"index":0,"message":{"role":"assistant","content":"The lab is on Monday."},"finish_reason":"stop"}]}`
	cli := provider.NewGroq("k", "http://groq.test/v1", httpClient(&fakeTransport{respStatus: 200, respBody: []byte(respBody), captured: capReq}))

	msgs := []provider.Message{
		provider.UserText("when is the lab?"),
		{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{{ID: "c1", Name: "query_calendar", Input: json.RawMessage(`{"title":"Lab"}`)}}},
		{Role: provider.RoleUser, ToolResults: []provider.ToolResult{{CallID: "c1", Content: "Lab on Monday"}}},
	}
	resp, err := cli.Complete(context.Background(), provider.Request{
		Messages:   msgs,
		Tools:      []provider.ToolSpec{calendarSpec()},
		ToolChoice: provider.ToolChoiceNone,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.Text != "The lab is on Monday." {
		t.Errorf("text = %q", resp.Text)
	}

	var body struct {
		ToolChoice any `json:"tool_choice"`
		Messages   []struct {
			Role       string `json:"role"`
			ToolCallID string `json:"tool_call_id"`
			ToolCalls  []struct {
				ID string `json:"id"`
			} `json:"tool_calls"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(capReq.body, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.ToolChoice != "none" {
		t.Errorf("tool_choice = %v", body.ToolChoice)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("want 3 messages, got %d", len(body.Messages))
	}
	if body.Messages[1].Role != "assistant" || len(body.Messages[1].ToolCalls) != 1 || body.Messages[1].ToolCalls[0].ID != "c1" {
		t.Errorf("assistant message = %+v", body.Messages[1])
	}
	if body.Messages[2].Role != "tool" || body.Messages[2].ToolCallID != "c1" {
		t.Errorf("tool message = %+v", body.Messages[2])
	}
}

func TestGroq_Complete_APIError(t *testing.T) {
	respBody := `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`
	cli := provider.NewGroq("bad", "http://groq.test/v1", httpClient(&fakeTransport{respStatus: 401, respBody: []byte(respBody)}))
	_, err := cli.Complete(context.Background(), provider.Request{Messages: []provider.Message{provider.UserText("hi")}})
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestGroq_Complete_NoChoices(t *testing.T) {
	cli := provider.NewGroq("k", "http://groq.test/v1", httpClient(&fakeTransport{respStatus: 200, respBody: []byte(`{"choices":[]}`)}))
	_, err := cli.Complete(context.Background(), provider.Request{Messages: []provider.Message{provider.UserText("hi")}})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no choices error, got %v", err)
	}
}

func TestAnthropic_Complete_ParsesToolUse(t *testing.T) {
	capReq := &capture{}
	respBody := `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-7-sonnet-latest",
		"content": [
			{"type": "text", "text": "Checking."},
			{"type": "tool_use", "id": "tu1", "name": "query_calendar", "input": {"title": "Lab"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 3, "output_tokens": 4}
	}`
	cli := provider.NewAnthropic("k", "http://anthropic.test", httpClient(&fakeTransport{respStatus: 200, respBody: []byte(respBody), captured: capReq}))

	resp, err := cli.Complete(context.Background(), provider.Request{
		System:    "sys",
		MaxTokens: 256,
		Messages:  []provider.Message{provider.UserText("when is the lab?")},
		Tools:     []provider.ToolSpec{calendarSpec()},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.Text != "Checking." {
		t.Errorf("text = %q", resp.Text)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "tu1" {
		t.Fatalf("tool calls = %+v", resp.ToolCalls)
	}
	var in map[string]string
	if err := json.Unmarshal(resp.ToolCalls[0].Input, &in); err != nil || in["title"] != "Lab" {
		t.Errorf("input = %s (%v)", resp.ToolCalls[0].Input, err)
	}
	if resp.StopReason != "tool_use" {
		t.Errorf("stop reason = %q", resp.StopReason)
	}

	var body struct {
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(capReq.body, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.System) != 1 || body.System[0].Text != "sys" {
		t.Errorf("system = %+v", body.System)
	}
	if len(body.Tools) != 1 || body.Tools[0].Name != "query_calendar" {
		t.Errorf("tools = %+v", body.Tools)
	}
}

func TestAnthropic_Complete_ToolResultsLeadUserMessage(t *testing.T) {
	capReq := &capture{}
	respBody := `{"id":"m","type":"message","role":"assistant","content":[{"type":"text","text":"ok"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`
	cli := provider.NewAnthropic("k", "http://anthropic.test", httpClient(&fakeTransport{respStatus: 200, respBody: []byte(respBody), captured: capReq}))

	msgs := []provider.Message{
		provider.UserText("q"),
		{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{{ID: "a", Name: "query_calendar"}}},
		{Role: provider.RoleUser, ToolResults: []provider.ToolResult{{CallID: "a", Content: "none", IsError: true}}},
	}
	if _, err := cli.Complete(context.Background(), provider.Request{Messages: msgs, Tools: []provider.ToolSpec{calendarSpec()}, ToolChoice: provider.ToolChoiceNone}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var body struct {
		ToolChoice struct {
			Type string `json:"type"`
		} `json:"tool_choice"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type      string          `json:"type"`
				ID        string          `json:"id"`
				Input     json.RawMessage `json:"input"`
				ToolUseID string          `json:"tool_use_id"`
				IsError   bool            `json:"is_error"`
			} `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(capReq.body, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.ToolChoice.Type != "none" {
		t.Errorf("tool_choice = %+v", body.ToolChoice)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("want 3 messages, got %d", len(body.Messages))
	}
	use := body.Messages[1].Content[0]
	if use.Type != "tool_use" || use.ID != "a" || string(use.Input) != "{}" {
		t.Errorf("tool_use block = %+v", use)
	}
	res := body.Messages[2].Content[0]
	if res.Type != "tool_result" || res.ToolUseID != "a" || !res.IsError {
		t.Errorf("tool_result block = %+v", res)
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	for _, tc := range []struct {
		name, want string
	}{
		{"", "groq"},
		{"groq", "groq"},
		{"anthropic", "anthropic"},
	} {
		c, err := provider.New(provider.Options{Name: tc.name, APIKey: "k"})
		if err != nil {
			t.Fatalf("New(%q): %v", tc.name, err)
		}
		if c.Name() != tc.want {
			t.Errorf("New(%q).Name() = %q, want %q", tc.name, c.Name(), tc.want)
		}
		if c.DefaultModel() == "" {
			t.Errorf("New(%q) has empty default model", tc.name)
		}
	}
	if _, err := provider.New(provider.Options{Name: "other"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

package runner_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/telemetry"
	"github.com/WOTOOOOOO/FAQ-tool/tools"
)

// scripted replays one response per Complete call and records requests.
type scripted struct {
	mu        sync.Mutex
	responses []*provider.Response
	err       error
	requests  []provider.Request
}

func (s *scripted) Name() string         { return "scripted" }
func (s *scripted) DefaultModel() string { return "test-model" }

func (s *scripted) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, errors.New("scripted: no more responses")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func textReply(s string) *provider.Response {
	return &provider.Response{Text: s, StopReason: "stop"}
}

func callReply(calls ...provider.ToolCall) *provider.Response {
	return &provider.Response{ToolCalls: calls, StopReason: "tool_calls"}
}

func call(id, name, input string) provider.ToolCall {
	return provider.ToolCall{ID: id, Name: name, Input: json.RawMessage(input)}
}

func echoTool(name string, confirm bool) tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:                 name,
		Description:          "echoes its input",
		InputSchema:          tools.GenerateSchema[struct{}](),
		RequiresConfirmation: confirm,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "echo:" + string(input), nil
		},
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func readEventLines(t *testing.T) []string {
	t.Helper()
	f, err := os.Open(filepath.Join(telemetry.ArtifactsDir(), "events.jsonl"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan events: %v", err)
	}
	return lines
}

func lastEvent(t *testing.T, lines []string, name string) map[string]any {
	t.Helper()
	for i := len(lines) - 1; i >= 0; i-- {
		var m map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &m); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if m["event"] == name {
			return m
		}
	}
	return nil
}

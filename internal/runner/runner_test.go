package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
	"github.com/WOTOOOOOO/FAQ-tool/tools"
)

func TestRun_DirectAnswerUsesOneRound(t *testing.T) {
	fake := &scripted{responses: []*provider.Response{textReply("Hello!")}}
	r := runner.New(fake, []tools.ToolDefinition{echoTool("echo", false)}, runner.Config{})

	turn, err := r.Run(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if turn.Action != runner.ActionAnswer || turn.Answer != "Hello!" || turn.Rounds != 1 {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Model != "test-model" || req.System != runner.DefaultSystemPrompt || req.MaxTokens != runner.DefaultMaxTokens {
		t.Errorf("unexpected request defaults: model=%q max=%d", req.Model, req.MaxTokens)
	}
	if req.ToolChoice != provider.ToolChoiceAuto || len(req.Tools) != 1 {
		t.Errorf("first round should offer tools: %+v", req.Tools)
	}
	if turn.ID == "" {
		t.Error("turn id not set")
	}
}

func TestRun_ToolRoundThenAnswerWithoutTools(t *testing.T) {
	fake := &scripted{responses: []*provider.Response{
		callReply(call("c1", "echo", `{"q":1}`)),
		textReply("The answer."),
	}}
	r := runner.New(fake, []tools.ToolDefinition{echoTool("echo", false)}, runner.Config{})

	turn, err := r.Run(context.Background(), "use the tool", runner.DenyAll{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if turn.Decision != runner.DecisionAuto {
		t.Errorf("tool without confirmation should run automatically, got %q", turn.Decision)
	}
	if turn.Answer != "The answer." || turn.Rounds != 2 {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if len(turn.Results) != 1 || turn.Results[0].Content != `echo:{"q":1}` || turn.Results[0].IsError {
		t.Fatalf("unexpected results: %+v", turn.Results)
	}

	second := fake.requests[1]
	if second.ToolChoice != provider.ToolChoiceNone {
		t.Errorf("second round must forbid tools, got %q", second.ToolChoice)
	}
	// user query, assistant calls, user results
	if len(second.Messages) != 3 {
		t.Fatalf("second round messages: got %d want 3", len(second.Messages))
	}
	if got := second.Messages[1].ToolCalls; len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("assistant tool calls not replayed: %+v", got)
	}
	if got := second.Messages[2].ToolResults; len(got) != 1 || got[0].CallID != "c1" {
		t.Errorf("tool results not paired: %+v", got)
	}
}

func TestRun_ConfirmationApprovedAndDeclined(t *testing.T) {
	for _, tc := range []struct {
		name     string
		approver runner.Approver
		want     runner.Decision
		content  string
	}{
		{"approved", runner.AutoApprove{}, runner.DecisionApproved, "echo:{}"},
		{"declined", runner.DenyAll{}, runner.DecisionDeclined, runner.DeclinedMessage},
		{"nil approver declines", nil, runner.DecisionDeclined, runner.DeclinedMessage},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fake := &scripted{responses: []*provider.Response{callReply(call("c1", "guarded", `{}`)), textReply("done")}}
			r := runner.New(fake, []tools.ToolDefinition{echoTool("guarded", true)}, runner.Config{})
			turn, err := r.Run(context.Background(), "q", tc.approver)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !turn.NeedsConfirmation || turn.Decision != tc.want {
				t.Fatalf("decision: got %q (needs=%v) want %q", turn.Decision, turn.NeedsConfirmation, tc.want)
			}
			if turn.Results[0].Content != tc.content {
				t.Errorf("result: got %q want %q", turn.Results[0].Content, tc.content)
			}
		})
	}
}

func TestRun_ApproverSeesCalls(t *testing.T) {
	fake := &scripted{responses: []*provider.Response{callReply(call("c1", "guarded", `{}`), call("c2", "echo", `{}`)), textReply("ok")}}
	r := runner.New(fake, []tools.ToolDefinition{echoTool("guarded", true), echoTool("echo", false)}, runner.Config{})
	var seen []string
	approver := runner.ApproverFunc(func(ctx context.Context, calls []provider.ToolCall) (bool, error) {
		for _, c := range calls {
			seen = append(seen, c.Name)
		}
		return true, nil
	})
	if _, err := r.Run(context.Background(), "q", approver); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Join(seen, ",") != "guarded,echo" {
		t.Fatalf("approver saw %v", seen)
	}
}

func TestRun_ApproverErrorStopsTurn(t *testing.T) {
	fake := &scripted{responses: []*provider.Response{callReply(call("c1", "guarded", `{}`))}}
	r := runner.New(fake, []tools.ToolDefinition{echoTool("guarded", true)}, runner.Config{})
	approver := runner.ApproverFunc(func(context.Context, []provider.ToolCall) (bool, error) {
		return false, errors.New("no tty")
	})
	turn, err := r.Run(context.Background(), "q", approver)
	if err == nil || !strings.Contains(err.Error(), "no tty") {
		t.Fatalf("expected approval error, got %v", err)
	}
	if turn == nil || turn.Done() || len(fake.requests) != 1 {
		t.Fatalf("turn should stay pending after a failed approval")
	}
}

func TestExecute_PlannedTurnResumes(t *testing.T) {
	fake := &scripted{responses: []*provider.Response{callReply(call("c1", "guarded", `{}`)), textReply("resumed")}}
	r := runner.New(fake, []tools.ToolDefinition{echoTool("guarded", true)}, runner.Config{})
	ctx := context.Background()

	turn, err := r.Plan(ctx, "q")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if turn.Done() || !turn.NeedsConfirmation {
		t.Fatalf("planned turn should await confirmation: %+v", turn)
	}
	if err := r.Execute(ctx, turn, true); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if turn.Answer != "resumed" || !turn.Done() {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if err := r.Execute(ctx, turn, true); err == nil {
		t.Fatal("expected error executing a turn twice")
	}
	if len(fake.requests) != 2 {
		t.Fatalf("at most two rounds per turn, got %d", len(fake.requests))
	}
}

func TestRun_ToolNotFoundAndHandlerError(t *testing.T) {
	failing := tools.ToolDefinition{
		Name:        "err_tool",
		Description: "always errors",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(context.Context, json.RawMessage) (string, error) {
			return "", errors.New("boom")
		},
	}
	fake := &scripted{responses: []*provider.Response{
		callReply(call("a", "missing", `{}`), call("b", "err_tool", `{}`)),
		textReply("sorry"),
	}}
	r := runner.New(fake, []tools.ToolDefinition{failing}, runner.Config{})
	turn, err := r.Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res := turn.Results[0]; res.Content != "tool not found" || !res.IsError {
		t.Errorf("missing tool result: %+v", res)
	}
	if res := turn.Results[1]; res.Content != "boom" || !res.IsError {
		t.Errorf("handler error result: %+v", res)
	}
}

func TestRun_ProviderErrorIsReasoned(t *testing.T) {
	fake := &scripted{err: errors.New("groq: invalid api key (status 401)")}
	r := runner.New(fake, nil, runner.Config{})
	_, err := r.Run(context.Background(), "q", nil)
	if !errorsx.HasReason(err, errorsx.ReasonLLMGenerate) {
		t.Fatalf("expected llm_generate reason, got %v (%s)", err, errorsx.Reason(err))
	}
	want := "An error occurred while processing the query: groq: invalid api key (status 401)"
	if got := errorsx.UserMessage(err); got != want {
		t.Errorf("user message: got %q", got)
	}
}

func TestRun_ReviewFlagFromTool(t *testing.T) {
	flagging := tools.ToolDefinition{
		Name:        "weak",
		Description: "low confidence",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(ctx context.Context, _ json.RawMessage) (string, error) {
			tools.MarkForReview(ctx, "low retrieval confidence 0.20")
			return "maybe", nil
		},
	}
	fake := &scripted{responses: []*provider.Response{callReply(call("a", "weak", `{}`)), textReply("perhaps")}}
	r := runner.New(fake, []tools.ToolDefinition{flagging}, runner.Config{})
	turn, err := r.Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !turn.NeedsReview || len(turn.ReviewReasons) != 1 {
		t.Fatalf("expected review flag, got %+v", turn)
	}
}

func TestRun_OverBudgetNewest_NoRequest(t *testing.T) {
	fake := &scripted{responses: []*provider.Response{textReply("never")}}
	r := runner.New(fake, nil, runner.Config{Budget: 1})
	_, err := r.Run(context.Background(), "hello there", nil)
	if !errorsx.HasReason(err, errorsx.ReasonLLMBudget) {
		t.Fatalf("expected llm_budget error, got %v", err)
	}
	if len(fake.requests) != 0 {
		t.Fatalf("expected no provider call, got %d", len(fake.requests))
	}
}

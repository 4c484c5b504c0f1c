package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/logging"
	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/telemetry"
	"github.com/WOTOOOOOO/FAQ-tool/internal/windowing"
	"github.com/WOTOOOOOO/FAQ-tool/tools"
)

// DefaultSystemPrompt steers the model towards the tools.
const DefaultSystemPrompt = `You are a helpful assistant for a university. You answer questions about:
- the university regulations (rules, fees, discounts, exams, resits, deadlines), using query_regulations;
- student records (names, nationalities, semesters, courses, discounts, tuition fees), using query_student_data;
- calendar events (lectures, labs, meetings and their dates, places and attendees), using query_calendar.
Use current_datetime to resolve relative dates such as "today" or "next week" before querying the calendar.
Student data is read-only: never attempt to change it.
Base your answer only on tool results. When a regulations passage is cited, keep its [chunk N, lines a-b] reference.
If the tools return nothing relevant, say so plainly.`

const (
	DefaultMaxTokens = 1024
	DefaultBudget    = 24000
)

// DeclinedMessage is the tool result sent for calls the user rejected.
const DeclinedMessage = "Tool call declined by the user. Answer without this data and tell the user it was not retrieved."

// Config tunes the model rounds.
type Config struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature float64
	// Budget caps the estimated size of the messages sent per round.
	Budget int
	Log    logrus.FieldLogger
}

type Runner struct {
	Client provider.Client
	Tools  []tools.ToolDefinition
	cfg    Config
	log    logrus.FieldLogger
}

func New(client provider.Client, toolDefs []tools.ToolDefinition, cfg Config) *Runner {
	if cfg.System == "" {
		cfg.System = DefaultSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Budget == 0 {
		cfg.Budget = DefaultBudget
	}
	if cfg.Model == "" {
		cfg.Model = client.DefaultModel()
	}
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{Client: client, Tools: toolDefs, cfg: cfg, log: log.WithField("component", "runner")}
}

// Model is the model the runner sends requests to.
func (r *Runner) Model() string { return r.cfg.Model }

// Plan runs the first round for query. The returned turn either carries the
// final answer (ActionAnswer) or the tool calls still to execute.
func (r *Runner) Plan(ctx context.Context, query string) (*Turn, error) {
	turn := &Turn{ID: uuid.NewString(), Query: query, Created: time.Now()}
	ctx = telemetry.WithTurnID(ctx, turn.ID)
	telemetry.EmitLocalFeatures(ctx, query)

	conv := []provider.Message{provider.UserText(query)}
	resp, err := r.send(ctx, turn, "plan", conv, provider.ToolChoiceAuto)
	if err != nil {
		return nil, err
	}

	if len(resp.ToolCalls) == 0 {
		turn.Action = ActionAnswer
		turn.Answer = resp.Text
	} else {
		turn.Action = ActionTools
		turn.Calls = resp.ToolCalls
		for _, c := range resp.ToolCalls {
			if def, ok := tools.Find(r.Tools, c.Name); ok && def.RequiresConfirmation {
				turn.NeedsConfirmation = true
			}
		}
		turn.conv = append(conv, resp.Message())
	}

	telemetry.Emit("turn_planned", map[string]any{
		"turn_id":            turn.ID,
		"action":             string(turn.Action),
		"tool_calls":         len(turn.Calls),
		"tool_names":         turn.ToolNames(),
		"needs_confirmation": turn.NeedsConfirmation,
	})
	r.log.WithFields(logrus.Fields{
		"turn_id": turn.ID,
		"action":  turn.Action,
		"tools":   turn.ToolNames(),
	}).Info("turn planned")
	return turn, nil
}

// Execute resolves a planned turn. approved only matters when the turn needs
// confirmation; declined calls are answered with DeclinedMessage. The second
// round offers no tools.
func (r *Runner) Execute(ctx context.Context, turn *Turn, approved bool) error {
	if turn.Action != ActionTools {
		return nil
	}
	if turn.Done() {
		return fmt.Errorf("turn %s already executed", turn.ID)
	}
	ctx = telemetry.WithTurnID(ctx, turn.ID)
	ctx, review := tools.WithReview(ctx)

	decision := DecisionDeclined
	switch {
	case !turn.NeedsConfirmation:
		decision = DecisionAuto
	case approved:
		decision = DecisionApproved
	}

	turn.Results = make([]provider.ToolResult, 0, len(turn.Calls))
	for _, c := range turn.Calls {
		if decision == DecisionDeclined {
			turn.Results = append(turn.Results, provider.ToolResult{CallID: c.ID, Content: DeclinedMessage, IsError: true})
			continue
		}
		turn.Results = append(turn.Results, r.execTool(ctx, c))
	}

	conv := append(turn.conv, provider.Message{Role: provider.RoleUser, ToolResults: turn.Results})
	resp, err := r.send(ctx, turn, "answer", conv, provider.ToolChoiceNone)
	if err != nil {
		return err
	}
	turn.Decision = decision
	turn.Answer = resp.Text
	if turn.Answer == "" {
		turn.Answer = "The model returned an empty answer."
	}
	turn.NeedsReview = review.Needed()
	turn.ReviewReasons = review.Reasons()
	turn.conv = nil

	telemetry.Emit("turn_answered", map[string]any{
		"turn_id":      turn.ID,
		"decision":     string(turn.Decision),
		"tool_calls":   len(turn.Calls),
		"needs_review": turn.NeedsReview,
		"answer_runes": len([]rune(turn.Answer)),
	})
	r.log.WithFields(logrus.Fields{
		"turn_id":      turn.ID,
		"decision":     turn.Decision,
		"needs_review": turn.NeedsReview,
	}).Info("turn answered")
	return nil
}

// Run plans query, asks approver when a call needs confirmation, and
// executes. A nil approver declines.
func (r *Runner) Run(ctx context.Context, query string, approver Approver) (*Turn, error) {
	turn, err := r.Plan(ctx, query)
	if err != nil {
		return nil, err
	}
	if turn.Action == ActionAnswer {
		return turn, nil
	}
	approved := true
	if turn.NeedsConfirmation {
		if approver == nil {
			approver = DenyAll{}
		}
		approved, err = approver.Approve(ctx, turn.Calls)
		if err != nil {
			return turn, fmt.Errorf("approval: %w", err)
		}
	}
	if err := r.Execute(ctx, turn, approved); err != nil {
		return turn, err
	}
	return turn, nil
}

// send windows conv into the budget and runs one model round.
func (r *Runner) send(ctx context.Context, turn *Turn, label string, conv []provider.Message, choice provider.ToolChoice) (*provider.Response, error) {
	window, stats := windowing.PrepareSendWindow(conv, r.cfg.Budget, windowing.HeuristicCounter{})

	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turn.ID,
		"round":              label,
		"model":              r.cfg.Model,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})

	if os.Getenv("FAQ_VERBOSE_WINDOW_LOGS") == "1" {
		r.log.WithFields(logrus.Fields{
			"turn_id":     turn.ID,
			"round":       label,
			"budget":      stats.Budget,
			"est_total":   stats.Total,
			"groups_in":   stats.IncludedGroups,
			"groups_skip": stats.SkippedGroups,
			"newest_over": stats.OverBudgetNewest,
		}).Info("window prepared")
	}

	// With tool caps the newest group should always fit. If not, the budget
	// is misconfigured; fail before calling the provider.
	if stats.OverBudgetNewest {
		return nil, errorsx.Wrap(fmt.Errorf("newest message group exceeds the context budget of %d; raise llm.context_budget or lower retrieval.context_runes", stats.Budget), errorsx.ReasonLLMBudget)
	}

	req := provider.Request{
		Model:       r.cfg.Model,
		System:      r.cfg.System,
		Messages:    window,
		Tools:       tools.Specs(r.Tools),
		ToolChoice:  choice,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}
	telemetry.PersistPayload(turn.ID, label+"-request", req)

	start := time.Now()
	resp, err := r.Client.Complete(ctx, req)
	if err != nil {
		r.log.WithFields(logrus.Fields{"turn_id": turn.ID, "round": label}).WithError(err).Warn("model request failed")
		return nil, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	telemetry.PersistPayload(turn.ID, label+"-response", resp)
	turn.Rounds++
	turn.Usage.InputTokens += resp.Usage.InputTokens
	turn.Usage.OutputTokens += resp.Usage.OutputTokens
	r.log.WithFields(logrus.Fields{
		"turn_id":       turn.ID,
		"round":         label,
		"duration_ms":   time.Since(start).Milliseconds(),
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("model responded")
	return resp, nil
}

func (r *Runner) execTool(ctx context.Context, call provider.ToolCall) provider.ToolResult {
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	// Helper to emit a tool_exec event
	emit := func(durationMs int64, inputSize int, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   call.Name,
			"duration_ms": durationMs,
			"input_size":  inputSize,
			"output_size": outputSize,
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	inSize := len(call.Input)
	log := r.log.WithFields(logrus.Fields{"turn_id": turnID, "tool": call.Name})

	def, ok := tools.Find(r.Tools, call.Name)
	if !ok {
		emit(time.Since(start).Milliseconds(), inSize, 0, "tool not found")
		log.Warn("tool not found")
		return provider.ToolResult{CallID: call.ID, Content: "tool not found", IsError: true}
	}

	resp, err := def.Function(ctx, call.Input)
	if err != nil {
		// Generic error string in telemetry; the detail goes back to the model.
		emit(time.Since(start).Milliseconds(), inSize, 0, "tool error")
		log.WithError(errorsx.Wrap(err, errorsx.ReasonToolExec)).Warn("tool failed")
		return provider.ToolResult{CallID: call.ID, Content: err.Error(), IsError: true}
	}
	emit(time.Since(start).Milliseconds(), inSize, len(resp), "")
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("tool executed")
	return provider.ToolResult{CallID: call.ID, Content: resp}
}

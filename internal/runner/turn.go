package runner

import (
	"time"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
)

type Action string

const (
	ActionAnswer Action = "answer"
	ActionTools  Action = "tools"
)

// Decision records how the tool calls of a turn were approved.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionAuto     Decision = "auto"
	DecisionApproved Decision = "approved"
	DecisionDeclined Decision = "declined"
)

// Turn is one query and everything that happened while answering it.
type Turn struct {
	ID                string                `json:"id"`
	Query             string                `json:"query"`
	Created           time.Time             `json:"created"`
	Action            Action                `json:"action"`
	Calls             []provider.ToolCall   `json:"calls,omitempty"`
	Results           []provider.ToolResult `json:"results,omitempty"`
	NeedsConfirmation bool                  `json:"needs_confirmation"`
	Decision          Decision              `json:"decision,omitempty"`
	Answer            string                `json:"answer"`
	NeedsReview       bool                  `json:"needs_review"`
	ReviewReasons     []string              `json:"review_reasons,omitempty"`
	Rounds            int                   `json:"rounds"`
	Usage             provider.Usage        `json:"usage"`

	// conv holds the first round until Execute sends the second.
	conv []provider.Message
}

// Done reports whether the turn has its final answer.
func (t *Turn) Done() bool {
	return t.Action == ActionAnswer || t.Decision != DecisionNone
}

// ToolNames lists the called tools in call order.
func (t *Turn) ToolNames() []string {
	names := make([]string, 0, len(t.Calls))
	for _, c := range t.Calls {
		names = append(names, c.Name)
	}
	return names
}

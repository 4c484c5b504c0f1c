package windowing

import (
	"unicode/utf8"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m provider.Message) int
	CountGroup(g Group, all []provider.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
//   - text: rune count plus overhead
//   - tool call: rune count of the raw input plus overhead
//   - tool result: rune count of the content plus overhead
//   - a message with none of the above costs the overhead alone
type HeuristicCounter struct{}

// Fixed per-part overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m provider.Message) int {
	total := 0
	parts := 0
	if m.Text != "" {
		total += utf8.RuneCountInString(m.Text) + blockOverhead
		parts++
	}
	for _, c := range m.ToolCalls {
		total += utf8.RuneCount(c.Input) + blockOverhead
		parts++
	}
	for _, r := range m.ToolResults {
		total += utf8.RuneCountInString(r.Content) + blockOverhead
		parts++
	}
	if parts == 0 {
		return blockOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []provider.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}

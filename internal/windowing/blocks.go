package windowing

import (
	"fmt"
	"os"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
// Kind indicates whether it is a singleton or a validated pair.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that preserve tool-call pairs.
// Invariants:
// - A pair is exactly two adjacent messages: assistant(tool calls) then user(tool results).
// - Every call id in the assistant message has a result in the following user message.
// - The user message carries no results for ids the assistant did not issue.
// - Error results are treated the same as successful ones.
func GroupBlocks(msgs []provider.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.Role == provider.RoleAssistant && len(m.ToolCalls) > 0 {
			callIDs := collectCallIDs(m)
			if i+1 < len(msgs) && msgs[i+1].Role == provider.RoleUser {
				resultIDs := collectResultIDs(msgs[i+1])
				if coversAll(resultIDs, callIDs) && noExtraResults(resultIDs, callIDs) {
					groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
					i += 2
					continue
				}
				reason := "extra_results"
				if !coversAll(resultIDs, callIDs) {
					reason = "missing_results"
				}
				vlogf("exclude pair: reason=%s idx=%d", reason, i)
			} else {
				vlogf("exclude pair: reason=not_followed_by_user idx=%d", i)
			}
		}
		// Fallback: singleton
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

func collectCallIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolCalls))
	for _, c := range m.ToolCalls {
		if c.ID != "" {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

func collectResultIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolResults))
	for _, r := range m.ToolResults {
		if r.CallID != "" {
			ids[r.CallID] = struct{}{}
		}
	}
	return ids
}

// coversAll checks that every id in required is present in have.
func coversAll(have, required map[string]struct{}) bool {
	for id := range required {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

func noExtraResults(have, allowed map[string]struct{}) bool {
	for id := range have {
		if _, ok := allowed[id]; !ok {
			return false
		}
	}
	return true
}

// minimal verbose logging when FAQ_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("FAQ_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Printf("[windowing] "+format+"\n", args...)
	}
}

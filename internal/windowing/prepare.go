package windowing

import "github.com/WOTOOOOOO/FAQ-tool/internal/provider"

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens for included groups only.
// - Budget: the input token budget used.
// - IncludedGroups / SkippedGroups: groups kept and dropped.
// - OverBudgetNewest: true when the newest single group alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// Complete reports whether every group made it into the window.
func (s Stats) Complete() bool { return !s.OverBudgetNewest && s.SkippedGroups == 0 }

// PrepareSendWindow returns a suffix of msgs (oldest→newest) that fits within
// budget using the TokenCounter, without splitting groups.
//
// Rules:
// - Include whole groups scanning newest→oldest while total ≤ budget.
// - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
// - If budget ≤ 0, return an empty window (OverBudgetNewest set when any groups exist).
func PrepareSendWindow(msgs []provider.Message, budget int, c TokenCounter) ([]provider.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)
	stats := Stats{Budget: budget, SkippedGroups: len(groups)}
	if budget <= 0 {
		stats.OverBudgetNewest = true
		return nil, stats
	}

	start := len(groups)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], msgs)
		if stats.Total+cost > budget {
			if stats.IncludedGroups == 0 {
				vlogf("reason=over_budget_newest_group budget=%d cost=%d", budget, cost)
				stats.OverBudgetNewest = true
			}
			break
		}
		stats.Total += cost
		stats.IncludedGroups++
		start = gi
	}
	stats.SkippedGroups = len(groups) - stats.IncludedGroups

	if stats.IncludedGroups == 0 {
		return nil, stats
	}
	return msgs[groups[start].Start:], stats
}

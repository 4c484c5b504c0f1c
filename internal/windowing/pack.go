package windowing

import "unicode/utf8"

// TruncationSentinel marks text cut to fit a rune cap.
const TruncationSentinel = "\n…[truncated]"

// Clamp cuts s to at most max runes including the sentinel. It reports
// whether s was cut. max ≤ 0 disables the cap.
func Clamp(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	keep := max - utf8.RuneCountInString(TruncationSentinel)
	if keep < 0 {
		keep = 0
	}
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + TruncationSentinel, true
		}
		n++
	}
	return s + TruncationSentinel, true
}

// PackTexts keeps texts in rank order while their running rune total stays
// within budget and returns how many fit. The first text is always kept,
// clamped if it alone is over budget, so a non-empty input never packs to
// nothing.
func PackTexts(texts []string, budget int) ([]string, int) {
	if len(texts) == 0 {
		return nil, 0
	}
	if budget <= 0 {
		return texts, len(texts)
	}
	out := make([]string, 0, len(texts))
	used := 0
	for i, t := range texts {
		n := utf8.RuneCountInString(t)
		if used+n > budget {
			if i == 0 {
				first, _ := Clamp(t, budget)
				out = append(out, first)
			}
			break
		}
		used += n
		out = append(out, t)
	}
	return out, len(out)
}

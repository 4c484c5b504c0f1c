// Package regulations splits the regulations document into positioned chunks,
// indexes them in SQLite FTS5 and answers questions with cited passages.
package regulations

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 800
	DefaultMinSize    = 200
	DefaultMaxSize    = 1200
)

// Options configures chunk sizes, in runes.
type Options struct {
	TargetSize int
	MinSize    int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MinSize:    DefaultMinSize,
		MaxSize:    DefaultMaxSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetSize <= 0 {
		o.TargetSize = d.TargetSize
	}
	if o.MaxSize < o.TargetSize {
		o.MaxSize = o.TargetSize * 3 / 2
	}
	if o.MinSize <= 0 || o.MinSize > o.TargetSize {
		o.MinSize = o.TargetSize / 4
	}
	return o
}

// Chunk is a span of the source document. Text is the exact source text of
// lines StartLine..EndLine (1-based, inclusive) with outer whitespace trimmed.
type Chunk struct {
	ID        string `json:"id,omitempty"`
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// ChunkText splits text into chunks on heading and blank-line boundaries, merges
// small blocks up to the target size and hard-splits oversized ones on line
// boundaries. Empty input yields no chunks.
func ChunkText(text string, opts Options) []Chunk {
	opts = opts.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	blocks := mergeBlocks(lines, splitBlocks(lines), opts)

	out := make([]Chunk, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, Chunk{
			Seq:       len(out) + 1,
			Text:      b.text(lines),
			StartLine: b.start,
			EndLine:   b.end,
		})
	}
	return out
}

// block is a line span [start, end], 1-based and inclusive.
type block struct {
	start int
	end   int
	size  int
}

func (b block) text(lines []string) string {
	return strings.TrimSpace(strings.Join(lines[b.start-1:b.end], "\n"))
}

func span(lines []string, start, end int) block {
	b := block{start: start, end: end}
	b.size = utf8.RuneCountInString(b.text(lines))
	return b
}

var headingRe = regexp.MustCompile(`(?i)^(#+\s|§|(article|section|chapter|part|annex)\s+[0-9ivxlc]+\b)`)

func isHeading(trimmed string) bool { return headingRe.MatchString(trimmed) }

// splitBlocks cuts the document at blank lines and before headings.
func splitBlocks(lines []string) []block {
	var blocks []block
	start := 0
	flush := func(end int) {
		if start > 0 && end >= start {
			blocks = append(blocks, span(lines, start, end))
		}
		start = 0
	}

	for i, line := range lines {
		n := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush(n - 1)
			continue
		}
		if isHeading(trimmed) {
			flush(n - 1)
		}
		if start == 0 {
			start = n
		}
	}
	flush(len(lines))
	return blocks
}

// mergeBlocks combines adjacent blocks while they stay within the target
// size, letting an undersized block grow up to the max, and hard-splits
// anything still over the max.
func mergeBlocks(lines []string, blocks []block, opts Options) []block {
	var out []block
	var acc block
	have := false

	flushAcc := func() {
		if !have {
			return
		}
		if acc.size > opts.MaxSize {
			out = append(out, hardSplit(lines, acc, opts)...)
		} else {
			out = append(out, acc)
		}
		have = false
	}

	for _, b := range blocks {
		if !have {
			acc, have = b, true
			continue
		}
		merged := span(lines, acc.start, b.end)
		if merged.size <= opts.TargetSize || (acc.size < opts.MinSize && merged.size <= opts.MaxSize) {
			acc = merged
			continue
		}
		flushAcc()
		acc, have = b, true
	}
	flushAcc()
	return out
}

// hardSplit breaks a span that exceeds the max size on line boundaries. A
// single line longer than the target stays whole.
func hardSplit(lines []string, b block, opts Options) []block {
	var out []block
	emit := func(start, end int) {
		for start <= end && strings.TrimSpace(lines[start-1]) == "" {
			start++
		}
		for end >= start && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}
		if start <= end {
			out = append(out, span(lines, start, end))
		}
	}

	curStart, curLen := b.start, 0
	for n := b.start; n <= b.end; n++ {
		lineLen := utf8.RuneCountInString(lines[n-1]) + 1
		if curLen > 0 && curLen+lineLen > opts.TargetSize {
			emit(curStart, n-1)
			curStart, curLen = n, 0
		}
		curLen += lineLen
	}
	emit(curStart, b.end)
	return out
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
)

func youLabel() string       { return color.New(color.FgHiBlue).Sprint("You") }
func assistantLabel() string { return color.New(color.FgHiYellow).Sprint("Assistant") }

var (
	approvalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
	toolName = lipgloss.NewStyle().Bold(true)
)

// renderMarkdown renders s for the terminal, falling back to plain text.
func renderMarkdown(s string) string {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(100))
	if err != nil {
		return s
	}
	out, err := r.Render(s)
	if err != nil {
		return s
	}
	return strings.Trim(out, "\n")
}

func printTurn(out io.Writer, t *runner.Turn) {
	fmt.Fprintf(out, "%s:\n%s\n", assistantLabel(), renderMarkdown(t.Answer))
	var meta []string
	if names := t.ToolNames(); len(names) > 0 {
		meta = append(meta, "tools: "+strings.Join(names, ", "))
	}
	if t.Decision == runner.DecisionDeclined {
		meta = append(meta, "tool calls declined")
	}
	if len(meta) > 0 {
		fmt.Fprintln(out, color.New(color.Faint).Sprint("("+strings.Join(meta, "; ")+")"))
	}
	if t.NeedsReview {
		fmt.Fprintln(out, color.New(color.FgYellow).Sprint("This answer is based on low-confidence matches and should be reviewed."))
	}
}

func describeCalls(calls []provider.ToolCall) string {
	var b strings.Builder
	b.WriteString("The assistant wants to run:\n")
	for _, c := range calls {
		fmt.Fprintf(&b, "\n%s %s", toolName.Render(c.Name), compactJSON(c.Input))
	}
	return b.String()
}

func compactJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// promptApprover asks on the terminal before gated tool calls run.
type promptApprover struct {
	lines <-chan string
	out   io.Writer
}

func (p promptApprover) Approve(ctx context.Context, calls []provider.ToolCall) (bool, error) {
	fmt.Fprintln(p.out, approvalBox.Render(describeCalls(calls)))
	fmt.Fprint(p.out, "Approve? [y/N]: ")
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// noticeDeny declines and says why, for non-interactive input.
type noticeDeny struct {
	out io.Writer
}

func (n noticeDeny) Approve(ctx context.Context, calls []provider.ToolCall) (bool, error) {
	fmt.Fprintln(n.out, "Tool calls need approval but input is not a terminal; declining (use --yes to approve).")
	return false, nil
}

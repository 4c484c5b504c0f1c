package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/WOTOOOOOO/FAQ-tool/internal/app"
	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
	"github.com/WOTOOOOOO/FAQ-tool/memory"
)

func newAskCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			lines := readLines(cmd.Context(), cmd.InOrStdin())
			approver := chooseApprover(yes, cmd.InOrStdin(), lines, out)

			turn, err := a.Runner.Run(cmd.Context(), strings.Join(args, " "), approver)
			if err != nil {
				fmt.Fprintln(out, errorsx.UserMessage(err))
				return reportedError{err}
			}
			printTurn(out, turn)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "approve tool calls without asking")
	return cmd
}

func newChatCmd() *cobra.Command {
	var (
		yes        bool
		transcript string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop (Ctrl-C to quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return chat(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), yes, transcript)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "approve tool calls without asking")
	cmd.Flags().StringVar(&transcript, "transcript", "", "load and save the chat history as JSON at this path")
	return cmd
}

func bootstrap(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd, cfg, true)
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(cmd.Context(), cfg, log, app.Options{WithRunner: true})
}

func chat(ctx context.Context, a *app.App, in io.Reader, out, errOut io.Writer, yes bool, transcript string) error {
	history := memory.NewHistory(a.Config.Server.HistorySize)
	if transcript != "" {
		prior, err := memory.LoadTranscript(transcript)
		if err != nil {
			fmt.Fprintf(errOut, "warning: failed to load transcript: %v\n", err)
		}
		// stored newest first; re-add oldest first to keep the order
		for i := len(prior) - 1; i >= 0; i-- {
			history.Add(prior[i])
		}
		if len(prior) > 0 {
			fmt.Fprintf(out, "Loaded %d earlier questions from %s\n", len(prior), transcript)
		}
	}

	lines := readLines(ctx, in)
	approver := chooseApprover(yes, in, lines, out)
	fmt.Fprintf(out, "Ask about the regulations, the calendar or student data (model %s, Ctrl-C to quit)\n", a.Runner.Model())

outer:
	for {
		fmt.Fprintf(out, "%s: ", youLabel())
		var (
			query string
			ok    bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			break outer
		case query, ok = <-lines:
			if !ok {
				break outer
			}
		}
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		turn, err := a.Runner.Run(ctx, query, approver)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break outer
			}
			fmt.Fprintln(out, errorsx.UserMessage(err))
			history.Add(memory.Entry{Query: query, Error: errorsx.UserMessage(err)})
			continue
		}
		printTurn(out, turn)
		history.Add(memory.Entry{
			TurnID:      turn.ID,
			Time:        turn.Created,
			Query:       turn.Query,
			Answer:      turn.Answer,
			Tools:       turn.ToolNames(),
			Decision:    string(turn.Decision),
			NeedsReview: turn.NeedsReview,
		})
	}

	if transcript != "" {
		if err := memory.SaveTranscript(transcript, history.Entries()); err != nil {
			fmt.Fprintf(errOut, "warning: failed to save transcript: %v\n", err)
		}
	}
	return nil
}

// readLines feeds input lines into a channel until EOF or ctx ends.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// chooseApprover auto-approves with --yes, prompts on a terminal and
// declines otherwise.
func chooseApprover(yes bool, in io.Reader, lines <-chan string, out io.Writer) runner.Approver {
	switch {
	case yes:
		return runner.AutoApprove{}
	case isTerminal(in):
		return promptApprover{lines: lines, out: out}
	default:
		return noticeDeny{out: out}
	}
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

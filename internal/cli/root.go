// Package cli implements the faqtool commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/WOTOOOOOO/FAQ-tool/internal/config"
	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/logging"
)

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"data.dir":     "data-dir",
	"llm.provider": "provider",
	"llm.model":    "model",
	"hitl.enabled": "hitl",
	"log.level":    "log-level",
	"log.format":   "log-format",
}

// NewRootCmd builds the command tree. in and out replace stdin and stdout.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "faqtool",
		Short: "Ask questions about university regulations, the calendar and student data",
		Long: "faqtool answers natural-language questions from a regulations document, a student records CSV " +
			"and a calendar JSON by letting a hosted model call read-only tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default ./faqtool.yaml if present)")
	pf.String("data-dir", "data", "directory holding regulations.txt, students.csv and calendar.json")
	pf.String("provider", config.ProviderGroq, "model provider: groq or anthropic")
	pf.String("model", "", "model name (default depends on the provider)")
	pf.Bool("hitl", false, "ask for approval before running confirmation-gated tools")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newChatCmd(),
		newGenerateCmd(),
		newIndexCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

// reportedError marks an error already shown to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// loadConfig resolves the configuration with the command's flags applied.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := map[string]*pflag.Flag{}
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}
	for key, name := range localFlagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{ConfigFile: file, Flags: flags})
	if err != nil {
		return cfg, errorsx.Wrap(err, errorsx.ReasonConfig)
	}
	return cfg, nil
}

// localFlagKeys covers flags defined on single commands.
var localFlagKeys = map[string]string{
	"server.addr": "addr",
}

// newLogger builds the logger. Interactive commands default to warn so log
// lines do not interleave with answers.
func newLogger(cmd *cobra.Command, cfg config.Config, interactive bool) (*logrus.Logger, error) {
	level := cfg.Log.Level
	if interactive && !cmd.Flags().Changed("log-level") && os.Getenv("FAQ_LOG_LEVEL") == "" {
		level = "warn"
	}
	return logging.New(logging.Options{Level: level, Format: cfg.Log.Format, Out: cmd.ErrOrStderr()})
}

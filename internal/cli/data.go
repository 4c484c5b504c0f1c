package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WOTOOOOOO/FAQ-tool/internal/app"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Create students.csv and calendar.json when they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg, true)
			if err != nil {
				return err
			}
			root, err := app.OpenRoot(cfg)
			if err != nil {
				return err
			}
			outcomes, err := app.Generate(cmd.Context(), cfg, root, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range outcomes {
				fmt.Fprintln(out, o.Message)
			}
			files, err := root.List(".")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s\n", root.Dir(), strings.Join(files, ", "))
			return nil
		},
	}
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the regulations search index (skipped when the document is unchanged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg, true)
			if err != nil {
				return err
			}
			root, err := app.OpenRoot(cfg)
			if err != nil {
				return err
			}
			ix, err := app.OpenIndex(cfg, root)
			if err != nil {
				return err
			}
			defer ix.Close()
			res, err := app.BuildIndex(cmd.Context(), cfg, root, ix, log)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message())
			return nil
		},
	}
}

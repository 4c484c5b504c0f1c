package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WOTOOOOOO/FAQ-tool/internal/app"
	"github.com/WOTOOOOOO/FAQ-tool/internal/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Generate missing data, build the index and start the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg, false)
			if err != nil {
				return err
			}
			a, err := app.Bootstrap(cmd.Context(), cfg, log, app.Options{WithRunner: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := web.New(a.Runner, web.Config{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				PendingTTL:   cfg.HITL.PendingTTL,
				HistorySize:  cfg.Server.HistorySize,
			}, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", web.Title, cfg.Server.Addr)
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8501", "listen address")
	return cmd
}

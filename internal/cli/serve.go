package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cryptoquotes/internal/dispatch"
	"cryptoquotes/internal/logging"
	"cryptoquotes/internal/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest quotes over HTTP",
		Long: "Loads the quotes once, then serves GET /api/quotes and /healthz. " +
			"POST /api/quotes/refresh starts another load.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*flags)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			lg, err := setupLogging(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer lg.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loop := dispatch.NewLoop(0)
			go loop.Run(ctx)
			defer loop.Stop()

			h := newHolder(cfg, loop, lg.Logger)
			defer h.Close()

			srv := server.New(h, logging.Component(lg.Logger, "server"))
			defer srv.Close()

			h.LoadData()
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

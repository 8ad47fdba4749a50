package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/alexshd/anchorbench/server"
	"github.com/alexshd/anchorbench/survey"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the survey API",
		Long: `Serve the survey and analysis API under /v1 and Prometheus metrics
at /metrics. Datasets are held in memory. SIGINT or SIGTERM triggers a
graceful shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Server

			if !a.logger.Enabled(cmd.Context(), slog.LevelDebug) {
				gin.SetMode(gin.ReleaseMode)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			handlers := server.NewHandlers(
				survey.NewMemoryStore(),
				survey.NewGeneratorWithConfig(time.Now().UnixNano(), a.cfg.Generator),
				server.NewMetrics(reg),
				cfg,
				a.logger,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.ListenAndServe(ctx, cfg, server.New(handlers, reg), a.logger)
		},
	}

	cmd.Flags().String("addr", server.DefaultConfig().Addr, "listen address")
	mustFlag(a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr")))
	return cmd
}

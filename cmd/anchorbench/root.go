package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by every subcommand once the persistent
// pre-run has loaded configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     appConfig
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "anchorbench",
		Short: "Pearson correlation analysis for anchoring-effect surveys",
		Long: `anchorbench measures how strongly an arbitrary anchor number (Q1)
pulls a numeric estimate (Q2). It serves a survey API, analyzes CSV
exports, and generates synthetic populations with a known bias.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	mustFlag(a.v.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level")))

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newGenerateCmd(a))
	return cmd
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := loadConfiguration(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	slog.SetDefault(logger)

	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", "path", used)
	}
	return nil
}

// mustFlag panics on a programming error in flag wiring.
func mustFlag(err error) {
	if err != nil {
		panic(fmt.Sprintf("flag binding: %v", err))
	}
}

package main

import (
	"fmt"

	"go-job-harvester/internal/config"
	"go-job-harvester/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries what every subcommand needs after the root pre-run.
type cli struct {
	cfgFile  string
	logLevel string
	devLog   bool

	cfg    *config.Config
	logger *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &cli{}

	root := &cobra.Command{
		Use:           "harvester",
		Short:         "Harvest job postings from a listings site into a classified corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			log, err := logger.New(cfg.LogLevel, a.devLog)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			a.logger = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", config.DefaultPath, "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.devLog, "dev", false, "human-friendly console logs")

	root.AddCommand(
		newScrapeCmd(a),
		newAnalyzeCmd(a),
		newServeCmd(a),
	)
	return root
}

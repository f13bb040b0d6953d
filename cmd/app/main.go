package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ambient-reader/internal/bootstrap"
	"ambient-reader/internal/config"
	"ambient-reader/internal/logger"
)

var (
	version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:     "ambient-reader [book.epub]",
	Short:   "An EPUB reader with ambient backgrounds and sound",
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: <data dir>/config.yaml)")
	rootCmd.Flags().String("data-dir", "",
		"directory for preferences, presets and the library")
	rootCmd.Flags().Bool("memory", false,
		"keep everything in memory for this run")
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Console:    os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	opts := bootstrap.Options{}
	if len(args) == 1 {
		opts.InitialBook = args[0]
	}

	app := bootstrap.New(cfg, log, opts)
	if err := app.Run(); err != nil {
		log.Error("run app", zap.Error(err))
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

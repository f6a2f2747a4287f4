package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/logging"
	"github.com/vedanthq/SLMGen/internal/projectconfig"
)

var version = "dev"

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logFile    string
	debug      bool

	cfg          *projectconfig.ProjectConfig
	closeLogging func() error
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "slmgen",
		Short: "SLMGen - pick a small language model and build its fine-tuning notebook",
		Long: `SLMGen reads a chat fine-tuning dataset in JSONL form, checks its quality,
recommends a small language model for the task and deployment target, and
generates a ready-to-run Colab notebook that fine-tunes it.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to .slmgen.yaml (default: search upward from the working directory)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a.closeLogging != nil {
			return a.closeLogging()
		}
		return nil
	}

	cmd.AddCommand(newIngestCommand(a))
	cmd.AddCommand(newAnalyzeCommand(a))
	cmd.AddCommand(newRecommendCommand(a))
	cmd.AddCommand(newPreviewCommand(a))
	cmd.AddCommand(newGenerateCommand(a))
	cmd.AddCommand(newCatalogCommand())
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newJobsCommand(a))
	cmd.AddCommand(newCacheCommand(a))
	cmd.AddCommand(newSessionsCommand(a))

	return cmd
}

// setup loads configuration and installs the default logger.
func (a *app) setup() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = projectconfig.LoadFile(a.configPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return fmt.Errorf("getting working directory: %w", wdErr)
		}
		a.cfg, err = projectconfig.Load(wd)
	}
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(a.cfg.Logging.Level)
	if err != nil {
		return err
	}
	if a.debug {
		level = slog.LevelDebug
	}
	logFile := a.logFile
	if logFile == "" {
		logFile = a.cfg.Logging.File
	}
	_, closeFn, err := logging.Setup(logFile, level)
	if err != nil {
		slog.Warn("Failed to open log file, using stderr only", "file", logFile, "error", err)
	}
	a.closeLogging = closeFn
	return nil
}

// config returns the loaded configuration, or defaults when a command runs
// without the root's pre-run hook (as in tests).
func (a *app) config() *projectconfig.ProjectConfig {
	if a.cfg == nil {
		a.cfg = projectconfig.New()
	}
	return a.cfg
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

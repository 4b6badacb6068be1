// Package cmd implements the mch-analysis command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mch-analysis/internal/service"
	"github.com/mch-analysis/pkg/config"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/telemetry"
	"github.com/mch-analysis/pkg/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg      *config.Config
	logger   utils.Logger
	svc      *service.Service
	shutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mch-analysis",
	Short: "Inspect profiler dumps, tag documents and benchmark worlds",
	Long: `mch-analysis reads and writes the artifacts of a game server benchmark harness.

It parses profiler result dumps, lists their hotspots, exports them as JSON and
keeps a history of imported runs. It decodes binary tag documents such as
level.dat, and switches the benchmark datapack enabled in a world.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown(cmd.Context())
	},
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		// PersistentPostRunE is skipped when RunE fails.
		teardown(context.Background())
		stderr := rootCmd.ErrOrStderr()
		fmt.Fprintf(stderr, "Error: %s\n", apperrors.GetErrorMessage(err))
		if cause := errorCause(err); cause != "" {
			fmt.Fprintf(stderr, "  %s\n", cause)
		}
	}
	return apperrors.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid arguments", err)
	})

	binName := BinName()
	rootCmd.Example = `  # Show the hottest entries of a profiler dump
  ` + binName + ` profile top ./debug/profile-results.txt -n 15

  # Record a dump in the history database and follow one entry over time
  ` + binName + ` profile import ./debug/*.txt
  ` + binName + ` profile history tick.levels.minecraft:overworld.entities

  # Print level.dat as SNBT
  ` + binName + ` nbt dump ./world/level.dat

  # Enable one benchmark datapack and disable the others
  ` + binName + ` level toggle ./world file/mch-entities --backup`
}

// setup loads the configuration and builds the logger, tracer and service.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "failed to load configuration", err)
	}

	logger, err = newLogger(cfg.Log, verbose)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "failed to create logger", err)
	}
	utils.SetGlobalLogger(logger)

	shutdown, err = telemetry.Init(cmd.Context(), cfg.Telemetry.Tracing(Version))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "failed to initialize telemetry", err)
	}

	svc, err = service.New(cfg, service.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded (layout %s, storage %s, database %s)",
		cfg.Profiler.Layout, cfg.Storage.Type, cfg.Database.Type)
	return nil
}

func teardown(ctx context.Context) error {
	var firstErr error
	if svc != nil {
		if err := svc.Close(); err != nil {
			firstErr = err
		}
		svc = nil
	}
	if shutdown != nil {
		if err := shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		shutdown = nil
	}
	if zl, ok := logger.(*utils.ZapLogger); ok {
		zl.Sync()
	}
	return firstErr
}

func newLogger(c config.LogConfig, verbose bool) (utils.Logger, error) {
	level := utils.ParseLogLevel(c.Level)
	if verbose {
		level = utils.LevelDebug
	}
	if c.OutputPath != "" {
		return utils.NewFileLogger(level, c.Format, c.OutputPath)
	}
	return utils.NewZapLogger(level, c.Format, os.Stderr), nil
}

func errorCause(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return ""
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trilemma/internal/config"
	"trilemma/internal/storage"
	api "trilemma/pkg/trilemma"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries the persistent flags and the logger shared by every command.
type app struct {
	out io.Writer
	log *zap.Logger

	storeKind    string
	dbPath       string
	artifactsDir string
	exportsDir   string
	logLevel     string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{out: stdout, log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "trilemmactl",
		Short:         "Run iterated three-player Prisoner's Dilemma tournaments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(stdout)

	flags := root.PersistentFlags()
	flags.StringVar(&a.storeKind, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	flags.StringVar(&a.dbPath, "db-path", "trilemma.db", "sqlite database path")
	flags.StringVar(&a.artifactsDir, "artifacts-dir", "artifacts", "run artifacts directory")
	flags.StringVar(&a.exportsDir, "exports-dir", "exports", "default export output directory")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	root.AddCommand(
		a.newRunCmd(),
		a.newSeriesCmd(),
		a.newRunsCmd(),
		a.newStandingsCmd(),
		a.newMatchesCmd(),
		a.newExportCmd(),
		a.newDeleteCmd(),
		a.newStrategiesCmd(),
		a.newConfigCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// newClient opens the client API. Storage settings from a loaded config
// apply unless the matching flag was given explicitly.
func (a *app) newClient(cmd *cobra.Command, cfg *config.Config) (*api.Client, error) {
	opts := api.Options{
		StoreKind:    a.storeKind,
		DBPath:       a.dbPath,
		ArtifactsDir: a.artifactsDir,
		ExportsDir:   a.exportsDir,
		Logger:       a.log,
	}
	if cfg != nil {
		flags := cmd.Flags()
		if !flags.Changed("store") && cfg.Storage.Kind != "" {
			opts.StoreKind = cfg.Storage.Kind
		}
		if !flags.Changed("db-path") && cfg.Storage.Path != "" {
			opts.DBPath = cfg.Storage.Path
		}
		if !flags.Changed("artifacts-dir") && cfg.Storage.ArtifactsDir != "" {
			opts.ArtifactsDir = cfg.Storage.ArtifactsDir
		}
		if !flags.Changed("exports-dir") && cfg.Storage.ExportsDir != "" {
			opts.ExportsDir = cfg.Storage.ExportsDir
		}
	}
	return api.New(opts)
}

// cmd/rrfars/main.go
//
// Entry point for the rrfars CLI. Every command loads the .rrfars project
// directory of the working directory (or --project), builds the structured
// logger and session journal, and registers the built-in component bundles.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/rrfars/internal/component"
	"github.com/kingrea/rrfars/internal/config"
	"github.com/kingrea/rrfars/internal/logbook"
	"github.com/kingrea/rrfars/internal/logging"
	"github.com/kingrea/rrfars/internal/rrfars"
	"github.com/kingrea/rrfars/plugins"
)

var (
	// Global flags
	projectDir string
	verbose    bool

	env *environment
)

// environment is everything a command needs once the project is loaded.
type environment struct {
	cfg      *config.Config
	logger   *zap.Logger
	journal  *logbook.Logbook
	registry *component.Registry
}

var rootCmd = &cobra.Command{
	Use:   "rrfars",
	Short: "Adjective rating-scale survey runner",
	Long: `rrfars presents adjective rating-scale surveys to a study subject and
records each rating with its reaction time.

Definitions live in .rrfars/definitions (*.yaml or *.go). Raw data from an
interrupted session is recovered automatically on the next run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == initCmd.Name() {
			return nil
		}
		var err error
		env, err = loadEnvironment()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if env != nil && env.logger != nil {
			_ = env.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", "", "path to the project directory (defaults to cwd)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.AddCommand(initCmd, listCmd, validateCmd, runCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveProjectDir() (string, error) {
	dir := projectDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

func loadEnvironment() (*environment, error) {
	dir, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}
	if err := config.InitProjectDir(dir); err != nil {
		return nil, fmt.Errorf("init %s: %w", config.ProjectDirName, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	level := cfg.Project.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Dir:        cfg.LogsDir(),
		Level:      level,
		Console:    cfg.Project.Logging.Console,
		MaxSizeMB:  cfg.Project.Logging.MaxSizeMB,
		MaxBackups: cfg.Project.Logging.MaxBackups,
		MaxAgeDays: cfg.Project.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	reg := component.NewRegistry()
	if err := rrfars.Register(reg, rrfars.WithLogger(logger.Named("rrfars"))); err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger, journal: journal, registry: reg}, nil
}

func (e *environment) catalog() (*plugins.Catalog, error) {
	catalog, err := plugins.LoadCatalog(e.cfg.DefinitionsDir())
	if err != nil {
		return nil, err
	}
	if err := catalog.CheckBundles(e.registry); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (e *environment) lookup(id string) (plugins.DefinitionFile, error) {
	catalog, err := e.catalog()
	if err != nil {
		return plugins.DefinitionFile{}, err
	}
	file, ok := catalog.Lookup(id)
	if !ok {
		return plugins.DefinitionFile{}, fmt.Errorf("no definition named %s in %s", id, e.cfg.DefinitionsDir())
	}
	return file, nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/rrfars/internal/component"
	"github.com/kingrea/rrfars/internal/config"
	"github.com/kingrea/rrfars/internal/host"
	"github.com/kingrea/rrfars/internal/rrfars"
	"github.com/kingrea/rrfars/plugins"
)

var (
	overridesFile string
	overrides     = keyValueFlag{}
	subject       string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .rrfars project directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}
		if err := config.InitProjectDir(dir); err != nil {
			return err
		}
		cfg, err := config.NewConfig(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", cfg.StateDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Add definitions to %s\n", cfg.DefinitionsDir())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := env.catalog()
		if err != nil {
			return err
		}
		files := catalog.All()
		if len(files) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No definitions found in %s\n", env.cfg.DefinitionsDir())
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBUNDLE\tVERSION\tSTATUS\tSOURCE")
		for _, file := range files {
			def := file.Definition
			status := "ok"
			missing, err := plugins.MissingKeys(env.registry, file, nil)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				status = "missing " + strings.Join(missing, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", def.ID, def.DisplayName(), def.Bundle, def.Version, status, file.Source())
		}
		return w.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [definition-id]",
	Short: "Check that a definition is cleared to begin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := env.lookup(args[0])
		if err != nil {
			return err
		}
		h, err := newHost()
		if err != nil {
			return err
		}
		if err := h.Check(file); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is cleared to begin\n", file.Definition.ID)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [definition-id]",
	Short: "Run a definition with the study subject",
	Long: `Loads the definition, checks it, and presents the survey. If a raw data
file from an interrupted run exists the session resumes at the first
unanswered question. Press ctrl+c to pause; the raw data is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := env.lookup(args[0])
		if err != nil {
			return err
		}
		h, err := newHost()
		if err != nil {
			return err
		}
		if err := h.Prepare(file); err != nil {
			return err
		}
		if h.Recovered() {
			position, total := h.Progress()
			fmt.Fprintf(cmd.OutOrStdout(), "Resuming %s at question %d of %d\n", file.Definition.ID, position, total)
		}
		if !h.Finished() {
			if err := h.Run(cmd.Context(), tea.WithAltScreen()); err != nil {
				if errors.Is(err, host.ErrAborted) {
					position, total := h.Progress()
					fmt.Fprintf(cmd.OutOrStdout(), "Session paused at question %d of %d. Run again to resume.\n", position, total)
					return nil
				}
				return err
			}
		}
		dataPath, err := h.Finish()
		if err != nil {
			return err
		}
		if errs := h.Errors(); len(errs) > 0 {
			env.logger.Warn("session finished with errors", zap.Strings("errors", errs))
			fmt.Fprintf(os.Stderr, "%d errors were registered; see %s\n", len(errs), env.cfg.JournalPath())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Data saved to %s\n", dataPath)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{validateCmd, runCmd} {
		cmd.Flags().StringVar(&overridesFile, "overrides-file", "", "YAML/JSON file with definition overrides")
		cmd.Flags().Var(&overrides, "set", "definition override (KEY=VALUE, repeatable)")
	}
	runCmd.Flags().StringVar(&subject, "subject", "", "study subject identifier (defaults to session.subject)")
}

func newHost() (*host.Controller, error) {
	extra, err := buildOverrides(overridesFile, overrides)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	who := subject
	if who == "" {
		who = env.cfg.Project.Session.Subject
	}
	if err := checkHeaderValue("subject", who); err != nil {
		return nil, err
	}
	if err := checkHeaderValue("session.study", env.cfg.Project.Session.Study); err != nil {
		return nil, err
	}
	return host.New(host.Options{
		Registry:  env.registry,
		Logger:    env.logger.Named("host"),
		Journal:   env.journal,
		Defaults:  component.Definition{rrfars.DataDirectoryKey: env.cfg.DataDir()},
		Overrides: extra,
		Subject:   who,
		Study:     env.cfg.Project.Session.Study,
	}), nil
}

// checkHeaderValue rejects values that would split a raw data row.
func checkHeaderValue(name, value string) error {
	if strings.ContainsAny(value, "\t\r\n") {
		return fmt.Errorf("%s %q must not contain tabs or line breaks", name, value)
	}
	return nil
}

// Package cmd provides the chatbot command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/basakil/brm-chatbot/pkg/config"
)

// app carries what PersistentPreRunE prepares for the subcommands
type app struct {
	configDir string
	profiles  []string

	cfg    *config.Config
	logger *slog.Logger
}

// New returns the root command. Without a subcommand it serves.
func New() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "chatbot",
		Short:        "Demo financial chatbot service for logging, metrics and autoscaling tests",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configDir, "config-dir", "c", "", "configuration directory (overrides "+config.EnvConfigDir+")")
	cmd.PersistentFlags().StringSliceVarP(&a.profiles, "profiles", "p", nil, "active configuration profiles (overrides "+config.EnvProfilesActive+")")

	cmd.AddCommand(
		a.cmdServe(),
		a.cmdClassify(),
		a.cmdLoadgen(),
	)
	return cmd
}

func (a *app) load() error {
	cfg, err := config.LoadWithOptions(config.OptionsFromEnv().WithDir(a.configDir).WithProfiles(a.profiles))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = newLogger(cfg, os.Stdout)
	return nil
}

// newLogger builds the process logger from the "logging" section.
// logging.format "json" suits log shippers such as Loki; anything else is text.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.GetLogLevel(slog.LevelInfo)}

	var handler slog.Handler
	if strings.EqualFold(cfg.GetStringWithDefault("logging.format", "text"), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		"instance", cfg.GetStringWithDefault("instance.id", "local-worker"),
		"version", cfg.GetStringWithDefault("app.version", "v1.0"),
	)
}

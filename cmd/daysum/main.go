package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mycrub/daysum/pkg/config"
	"github.com/mycrub/daysum/pkg/logging"
)

var version = "dev"

const defaultConfigPath = "daysum.yaml"

// globals are shared by every subcommand once the root pre-run has resolved
// the configuration.
type globals struct {
	configPath string
	envFile    string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	g := &globals{}

	root := &cobra.Command{
		Use:           "daysum",
		Short:         "daysum: daily forum topic summaries with a local expiring cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd.Flags().Changed("config"))
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", defaultConfigPath, "path to config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before the config (ignored if missing)")

	root.AddCommand(
		newGetCmd(g),
		newWatchCmd(g),
		newCacheCmd(g),
		newMCPCmd(g),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the dotenv file, then the config file. A missing config file is
// only an error when it was named explicitly.
func (g *globals) load(explicitConfig bool) error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	path := g.configPath
	if !explicitConfig {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Resolve(path)
	if err != nil {
		return err
	}

	// stdout carries summaries and MCP traffic; logs always go to stderr.
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	g.cfg = cfg
	g.logger = logger
	return nil
}

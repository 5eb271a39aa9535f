package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"snapify/pkg/config"
	"snapify/pkg/logger"
	"snapify/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	noColor      bool
	stateFile    string
	stateBackend string
)

// errUsage marks errors that were already reported to the user
var errUsage = errors.New("usage error")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snapify",
	Short: "Download new public story media for a set of users",
	Long: `Snapify polls public story pages and downloads media it has not seen before.

Every pass fetches each user's story page, compares the media URLs it lists
with the ones recorded in the state file and downloads only the new ones into
<directory>/<username>/. The state file is updated once per pass, so running
Snapify twice in a row downloads nothing the second time.

Features:
  - Incremental sync backed by a JSON or bbolt state file
  - Concurrent feed fetches and media downloads
  - Monitor mode that repeats the sync at a fixed interval
  - Desktop notifications when new media arrives`,
	Example: `  # Sync two users once
  snapify -u alice,bob

  # Keep watching every 5 minutes, writing into ./media
  snapify -u alice -m --interval 5 -d ./media

  # Use the bbolt state backend
  snapify -u alice --state-backend bolt`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE:          runSync,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUsage) {
			ui.PrintError("Error", err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .snapify.yaml or $HOME/.config/snapify/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&stateFile, "json", "autoposts.json", "state file recording already downloaded media")
	rootCmd.PersistentFlags().StringVar(&stateBackend, "state-backend", config.StateBackendJSON, "state backend (json, bolt)")

	// Version template
	rootCmd.SetVersionTemplate(`Snapify {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// persistentFlags collects the global flags the user set explicitly
func persistentFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("no-color") {
		flags["no-color"] = noColor
	}
	if cmd.Flags().Changed("json") {
		flags["state-file"] = stateFile
	}
	if cmd.Flags().Changed("state-backend") {
		flags["state-backend"] = stateBackend
	}
	return flags
}

// setup loads configuration and initializes the shared logger and terminal
func setup(flags map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	ui.SetNoColor(cfg.Output.NoColor)
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

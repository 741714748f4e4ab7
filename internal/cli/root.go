// Package cli implements the tunecore command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
	"github.com/tejashwikalptaru/tunecore/internal/config"
)

var (
	cfgFile string
	jsonOut bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tunecore",
	Short: "Inspect and manage tunecore player state",
	Long: `tunecore manages the durable state of the tunecore player core:
the saved queue, the playback mode, play counts, playlists and the play history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/tunecore/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// withApp opens the application for the duration of fn.
func withApp(fn func(a *app.Application) error) (err error) {
	a, err := app.NewApplication(cfg, app.WithoutWatcher())
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := a.Shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	return fn(a)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Version needs no config
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		info := app.GetVersionInfo()
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), info)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

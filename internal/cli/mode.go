package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show or change the playback mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			mode := a.Playback().Mode()
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"mode": mode.String()})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), mode)
			return err
		})
	},
}

var modeSetCmd = &cobra.Command{
	Use:       "set <mode>",
	Short:     "Change the playback mode",
	Long:      `Change the playback mode: normal, repeat_one, repeat_all, shuffle or stop_after.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"normal", "repeat_one", "repeat_all", "shuffle", "stop_after"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := domain.ParsePlaybackMode(args[0])
		if err != nil {
			return err
		}

		return withApp(func(a *app.Application) error {
			if err := a.Playback().SetMode(mode); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Mode set to %s\n", mode)
			return err
		})
	},
}

func init() {
	modeCmd.AddCommand(modeSetCmd)
	rootCmd.AddCommand(modeCmd)
}

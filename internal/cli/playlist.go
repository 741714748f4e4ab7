package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
)

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Manage the playlist membership used by history charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			names, err := a.Playlists().PlaylistNames()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), names)
			}
			if len(names) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No playlists")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return err
		})
	},
}

var playlistSetCmd = &cobra.Command{
	Use:   "set <name> <file>...",
	Short: "Create or replace a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks := tracksFromPaths(args[1:])
		paths := make([]string, len(tracks))
		for i, t := range tracks {
			paths[i] = t.Path
		}

		return withApp(func(a *app.Application) error {
			if err := a.Playlists().SavePlaylist(args[0], paths); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Playlist %q has %d %s\n", args[0], len(paths), plural(len(paths), "track", "tracks"))
			return err
		})
	},
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			if err := a.Playlists().DeletePlaylist(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Playlist %q deleted\n", args[0])
			return err
		})
	},
}

func init() {
	playlistCmd.AddCommand(playlistSetCmd)
	playlistCmd.AddCommand(playlistDeleteCmd)
	rootCmd.AddCommand(playlistCmd)
}

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

var queueStart int

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show and edit the saved queue",
	RunE:  runQueueShow,
}

var queueShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the saved queue",
	RunE:  runQueueShow,
}

var queueSetCmd = &cobra.Command{
	Use:   "set <file>...",
	Short: "Replace the saved queue with the given files",
	Long: `Replace the saved queue with the given files, in order.

Examples:
  tunecore queue set ~/Music/album/*.flac
  tunecore queue set --start 2 a.mp3 b.mp3 c.mp3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQueueSet,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Append files to the saved queue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			for _, t := range tracksFromPaths(args) {
				if err := a.Playback().AppendManual(t); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Queue has %s tracks\n", humanize.Comma(int64(a.Queue().Len())))
			return err
		})
	},
}

var queueMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a track within the saved queue (1-based positions)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		to, err := parsePosition(args[1])
		if err != nil {
			return err
		}

		return withApp(func(a *app.Application) error {
			if err := a.Playback().MoveManual(from, to); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Moved track %d to position %d\n", from+1, to+1)
			return err
		})
	},
}

var queueCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Drop tracks whose files no longer exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			result, err := a.Playback().CleanupQueue()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d missing %s\n",
				result.Removed, plural(result.Removed, "track", "tracks"))
			return err
		})
	},
}

func init() {
	queueSetCmd.Flags().IntVarP(&queueStart, "start", "s", 1, "Position of the current track (1-based)")

	queueCmd.AddCommand(queueShowCmd)
	queueCmd.AddCommand(queueSetCmd)
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueMoveCmd)
	queueCmd.AddCommand(queueCleanupCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueShow(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.Application) error {
		snapshot := a.Queue().Snapshot()

		out := cmd.OutOrStdout()
		if jsonOut {
			return writeJSON(out, snapshot)
		}
		if len(snapshot.Items) == 0 {
			_, err := fmt.Fprintln(out, "Queue is empty")
			return err
		}

		order := "generated"
		if snapshot.IsManual {
			order = "manual"
		}
		fmt.Fprintf(out, "Mode: %s, order: %s\n\n", a.Playback().Mode(), order)

		table := NewTable(out, "", "#", "TITLE", "ARTIST", "PATH")
		for i, t := range snapshot.Items {
			marker := ""
			if i == snapshot.CurrentIndex {
				marker = "▶"
			}
			table.Row(marker, strconv.Itoa(i+1), truncate(orDash(t.Title), 40), truncate(orDash(t.Artist), 24), t.Path)
		}
		table.Flush()
		return nil
	})
}

func runQueueSet(cmd *cobra.Command, args []string) error {
	tracks := tracksFromPaths(args)
	if queueStart < 1 || queueStart > len(tracks) {
		return domain.NewValidationError("start", queueStart, fmt.Sprintf("must be between 1 and %d", len(tracks)))
	}

	return withApp(func(a *app.Application) error {
		if err := a.Playback().SetQueue(tracks, queueStart-1); err != nil {
			return err
		}
		kept := a.Queue().Len()
		if skipped := len(tracks) - kept; skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d missing %s\n", skipped, plural(skipped, "file", "files"))
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Queue set to %s tracks\n", humanize.Comma(int64(kept)))
		return err
	})
}

// tracksFromPaths builds minimal tracks for files given on the command line.
// The host library normally supplies full metadata.
func tracksFromPaths(paths []string) []domain.Track {
	tracks := make([]domain.Track, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		base := filepath.Base(p)
		tracks = append(tracks, domain.Track{
			ID:    p,
			Path:  p,
			Title: strings.TrimSuffix(base, filepath.Ext(base)),
		})
	}
	return tracks
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError("position", s, "must be a positive number")
	}
	return n - 1, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

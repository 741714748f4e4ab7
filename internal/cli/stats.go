package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
)

var statsLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show and transfer play counts",
	RunE:  runStatsTop,
}

var statsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List the most played tracks",
	RunE:  runStatsTop,
}

var statsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write play counts as JSON (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			if len(args) == 0 || args[0] == "-" {
				return a.Stats().ExportPlayCounts(cmd.OutOrStdout())
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := a.Stats().ExportPlayCounts(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Play counts exported to %s\n", args[0])
			return err
		})
	},
}

var statsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all play counts with an exported file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()
			in = f
		}

		return withApp(func(a *app.Application) error {
			if err := a.Stats().ImportPlayCounts(in); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Play counts imported")
			return err
		})
	},
}

func init() {
	statsCmd.PersistentFlags().IntVarP(&statsLimit, "limit", "l", 20, "Maximum number of tracks to show")

	statsCmd.AddCommand(statsTopCmd)
	statsCmd.AddCommand(statsExportCmd)
	statsCmd.AddCommand(statsImportCmd)
	rootCmd.AddCommand(statsCmd)
}

func runStatsTop(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.Application) error {
		top, err := a.Stats().Top(statsLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOut {
			return writeJSON(out, top)
		}
		if len(top) == 0 {
			_, err := fmt.Fprintln(out, "No plays recorded")
			return err
		}

		table := NewTable(out, "RANK", "PLAYS", "TRACK")
		for i, tc := range top {
			table.Row(humanize.Ordinal(i+1), humanize.Comma(int64(tc.Count)), tc.Path)
		}
		table.Flush()
		return nil
	})
}

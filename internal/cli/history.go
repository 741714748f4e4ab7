package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecore/internal/app"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/service"
)

var (
	historyLimit   int
	historyConfirm bool

	chartBucket string
	chartGroup  string
	chartRange  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show and manage the play history",
	Long:  `Show recent plays, chart them over time, and export, import or clear the history log.`,
	RunE:  runHistoryRecent,
}

var historyRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent plays",
	RunE:  runHistoryRecent,
}

var historyChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Count plays per day, week or month",
	Long: `Aggregate the history into buckets and series.

Examples:
  tunecore history chart --bucket week --group artist
  tunecore history chart --bucket day --range 30`,
	RunE: runHistoryChart,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Copy the history log to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			if err := a.History().ExportFile(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", args[0])
			return err
		})
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the history log with an exported file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			if err := a.History().ImportFile(args[0]); err != nil {
				return err
			}
			events, err := a.History().ReadAll()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s plays\n", humanize.Comma(int64(len(events))))
			return err
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyConfirm {
			return errors.New("refusing to clear the history without --yes")
		}
		return withApp(func(a *app.Application) error {
			if err := a.History().Clear(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return err
		})
	},
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of plays to show")

	historyChartCmd.Flags().StringVarP(&chartBucket, "bucket", "b", "day", "Bucket width: day, week or month")
	historyChartCmd.Flags().StringVarP(&chartGroup, "group", "g", "overall", "Series: overall, artist, album, genre or playlist")
	historyChartCmd.Flags().IntVarP(&chartRange, "range", "r", 0, "Only count the last N days (0 for all)")

	historyClearCmd.Flags().BoolVarP(&historyConfirm, "yes", "y", false, "Confirm deletion")

	historyCmd.AddCommand(historyRecentCmd)
	historyCmd.AddCommand(historyChartCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryRecent(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.Application) error {
		events, err := a.History().Recent(historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOut {
			return writeJSON(out, events)
		}
		if len(events) == 0 {
			_, err := fmt.Fprintln(out, "No plays recorded")
			return err
		}

		table := NewTable(out, "WHEN", "TRACK", "ARTIST", "ALBUM", "PLAYED")
		for _, e := range events {
			played := "-"
			if e.Percent != nil {
				played = strconv.Itoa(*e.Percent) + "%"
			}
			table.Row(
				humanize.Time(e.Timestamp),
				truncate(orDash(e.TrackName), 40),
				truncate(orDash(e.Artist), 24),
				truncate(orDash(e.AlbumName), 24),
				played,
			)
		}
		table.Flush()
		return nil
	})
}

func runHistoryChart(cmd *cobra.Command, args []string) error {
	bucketing, err := domain.ParseBucketing(chartBucket)
	if err != nil {
		return err
	}
	groupBy, err := domain.ParseGroupBy(chartGroup)
	if err != nil {
		return err
	}

	return withApp(func(a *app.Application) error {
		chart, err := a.History().Chart(service.AggregateOptions{
			Bucketing: bucketing,
			GroupBy:   groupBy,
			RangeDays: chartRange,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOut {
			return writeJSON(out, chart)
		}
		if chart.Empty() {
			_, err := fmt.Fprintln(out, "No plays in range")
			return err
		}

		headers := make([]string, 0, len(chart.Buckets)+2)
		headers = append(headers, "SERIES")
		for _, b := range chart.Buckets {
			headers = append(headers, bucketLabel(b, chart.Bucketing))
		}
		headers = append(headers, "TOTAL")

		table := NewTable(out, headers...)
		for _, s := range chart.Series {
			row := make([]string, 0, len(headers))
			row = append(row, truncate(s.Name, 32))
			for _, c := range s.Counts {
				row = append(row, humanize.Comma(int64(c)))
			}
			row = append(row, humanize.Comma(int64(s.Total)))
			table.Row(row...)
		}
		table.Flush()
		return nil
	})
}

func bucketLabel(start time.Time, bucketing domain.Bucketing) string {
	if bucketing == domain.BucketMonth {
		return start.Format("2006-01")
	}
	return start.Format("2006-01-02")
}

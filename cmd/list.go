package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/calendar"
)

var listWeek int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a week's events and exit",
	Long:  `List the events of the current week (or --week N weeks away) in a simple text format and exit.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listWeek, "week", "w", 0, "Week relative to the current one")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	// Ensure config is loaded
	if cfg == nil {
		initConfig()
	}

	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(logger)
	if err != nil {
		return err
	}

	anchor := calendar.WeekAnchor(time.Now(), listWeek)
	events, err := st.Events(context.Background(), anchor, calendar.AddDays(anchor, calendar.DaysPerWeek))
	if err != nil {
		return fmt.Errorf("error getting events: %w", err)
	}

	printWeek(cmd.OutOrStdout(), anchor, events)
	return nil
}

// printWeek writes events grouped by the days of the week starting at
// anchor. Events spanning several days are listed under each of them.
func printWeek(w io.Writer, anchor time.Time, events []calendar.Event) {
	fmt.Fprintf(w, "Week of %s:\n", anchor.In(calendar.Zone).Format(cfg.DateFormat))
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	for _, d := range calendar.WeekDays(anchor) {
		next := calendar.AddDays(d.Bucket, 1)
		var lines []string
		for _, ev := range events {
			if !ev.Start.Before(next) || !ev.End.After(d.Bucket) {
				continue
			}
			timeStr := "All day"
			if !ev.AllDay {
				start, end := ev.Start, ev.End
				if start.Before(d.Bucket) {
					start = d.Bucket
				}
				if end.After(next) {
					end = next
				}
				timeStr = start.In(calendar.Zone).Format(cfg.TimeFormat) + "-" + end.In(calendar.Zone).Format(cfg.TimeFormat)
			}
			title := ev.Title
			if title == "" {
				title = "(untitled)"
			}
			lines = append(lines, fmt.Sprintf("  %s - %s", timeStr, title))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", d.Bucket.In(calendar.Zone).Format(cfg.DateFormat))
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/store"
)

var (
	importFrom  string
	importWeeks int
	importMax   int
)

var importCmd = &cobra.Command{
	Use:   "import <file.ics>",
	Short: "Load events from an iCalendar file",
	Long: `Load the events of an iCalendar file into the store. Events keep their
UID, so importing the same file again updates them instead of duplicating
them. Recurring events are expanded into one event per occurrence between
--from and --weeks weeks later.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFrom, "from", "", "First day of the recurrence horizon, YYYY-MM-DD (default: this week's Monday)")
	importCmd.Flags().IntVar(&importWeeks, "weeks", 26, "Length of the recurrence horizon in weeks")
	importCmd.Flags().IntVar(&importMax, "max", 0, "Maximum occurrences per recurring event (default 500)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		initConfig()
	}

	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	from := calendar.WeekStart(time.Now())
	if importFrom != "" {
		t, err := time.ParseInLocation("2006-01-02", importFrom, calendar.Zone)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		from = t.UTC()
	}
	if importWeeks < 1 {
		return fmt.Errorf("invalid --weeks: %d", importWeeks)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := store.ReadICS(f, store.ImportOptions{
		From:           from,
		To:             calendar.AddDays(from, importWeeks*calendar.DaysPerWeek),
		MaxOccurrences: importMax,
	}, logger)
	if err != nil {
		return err
	}

	st, err := openStore(logger)
	if err != nil {
		return err
	}
	n, err := st.Upsert(context.Background(), events)
	if err != nil {
		return fmt.Errorf("error storing events: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d events into %s\n", n, len(events), st.Path())
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/parser"
)

var addCmd = &cobra.Command{
	Use:   "add <when and title>",
	Short: "Add an event from a short description",
	Long: `Add an event described in plain words, for example:

  skuld add tomorrow 2pm-3:30pm dentist
  skuld add next monday 10am for 45m sync
  skuld add aug 28 company offsite

Without a time the event lasts the whole day. A single time starts a one
hour event.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		initConfig()
	}

	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ev, err := parser.New(time.Now()).Parse(strings.Join(args, " "))
	if err != nil {
		return err
	}

	st, err := openStore(logger)
	if err != nil {
		return err
	}
	created, err := st.Create(context.Background(), ev)
	if err != nil {
		return fmt.Errorf("error adding event: %w", err)
	}

	when := created.Start.In(calendar.Zone).Format(cfg.DateFormat)
	if !created.AllDay {
		when += " " + created.Start.In(calendar.Zone).Format(cfg.TimeFormat) +
			"-" + created.End.In(calendar.Zone).Format(cfg.TimeFormat)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q on %s\n", created.Title, when)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/store"
)

var (
	exportWeek   int
	exportAll    bool
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write events as an iCalendar file",
	Long:  `Write the events of the current week (or --week N, or --all) as an iCalendar document.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().IntVarP(&exportWeek, "week", "w", 0, "Week relative to the current one")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every stored event")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	var events []calendar.Event
	if exportAll {
		events, err = st.All(ctx)
	} else {
		anchor := calendar.WeekAnchor(time.Now(), exportWeek)
		events, err = st.Events(ctx, anchor, calendar.AddDays(anchor, calendar.DaysPerWeek))
	}
	if err != nil {
		return fmt.Errorf("error getting events: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := store.WriteICS(w, events, time.Now()); err != nil {
		return err
	}
	logger.Infof("exported %d events", len(events))
	return nil
}

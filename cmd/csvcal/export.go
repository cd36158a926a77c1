package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"csvcal/internal/calendar"
	"csvcal/internal/ics"
	appLog "csvcal/internal/log"
)

var (
	exportOut    string
	exportFilter string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the loaded events as an iCalendar file",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		events := calendar.FilterEvents(loadOnce(ctx, conf), exportFilter)
		feed := ics.Export(events, ics.ExportOptions{Name: conf.ICSName, Now: time.Now()})

		if exportOut == "" || exportOut == "-" {
			fmt.Fprint(cmd.OutOrStdout(), feed)
			return nil
		}
		if err := os.WriteFile(exportOut, []byte(feed), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		appLog.Info("wrote iCalendar file", "path", exportOut, "events", len(events))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file (- for stdout)")
	exportCmd.Flags().StringVar(&exportFilter, "tipo", "", "Only export events of this type")
}

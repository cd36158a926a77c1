package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"csvcal/internal/calendar"
	"csvcal/internal/config"
	"csvcal/internal/model"
	"csvcal/internal/source"
	"csvcal/internal/tui"
)

var (
	monthYear      int
	monthMonth     int
	monthFilter    string
	monthCellWidth int
)

var monthCmd = &cobra.Command{
	Use:   "month",
	Short: "Print a month to the terminal",
	RunE:  runMonth,
}

func init() {
	monthCmd.Flags().IntVar(&monthYear, "year", 0, "Year to show (default: current)")
	monthCmd.Flags().IntVar(&monthMonth, "month", 0, "Month to show, 1-12 (default: current)")
	monthCmd.Flags().StringVar(&monthFilter, "tipo", "", "Only show events of this type")
	monthCmd.Flags().IntVar(&monthCellWidth, "width", 14, "Width of one day column")
}

func runMonth(cmd *cobra.Command, args []string) error {
	state, err := monthState(time.Now(), monthYear, monthMonth, monthFilter)
	if err != nil {
		return err
	}

	conf, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	events := loadOnce(ctx, conf)
	view := calendar.Render(state, events, time.Now())
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderMonth(view, tui.RenderOptions{CellWidth: monthCellWidth}))
	return nil
}

// monthState resolves --year/--month against now; zero keeps the current
// value.
func monthState(now time.Time, year, month int, filter string) (calendar.State, error) {
	state := calendar.NewState(now)
	if year != 0 {
		if year < 1 || year > 9999 {
			return state, fmt.Errorf("invalid year %d", year)
		}
		state.Year = year
	}
	if month != 0 {
		if month < 1 || month > 12 {
			return state, fmt.Errorf("invalid month %d", month)
		}
		state.Month = time.Month(month)
	}
	return state.WithFilter(filter), nil
}

// loadOnce runs a single load of the configured feeds.
func loadOnce(ctx context.Context, conf *config.Config) []model.Event {
	fetcher := source.NewFetcher(time.Duration(conf.FetchTimeoutSeconds) * time.Second)
	return fetcher.LoadEvents(ctx, conf.Sources, conf.Fallback)
}

package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"csvcal/internal/capture"
	appLog "csvcal/internal/log"
	"csvcal/internal/source"
	"csvcal/internal/web"
)

var (
	snapshotOut    string
	snapshotYear   int
	snapshotMonth  int
	snapshotFilter string
	snapshotWidth  int
	snapshotHeight int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render the month page to a PNG with headless Chromium",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "calendar.png", "Output PNG path")
	snapshotCmd.Flags().IntVar(&snapshotYear, "year", 0, "Year to show (default: current)")
	snapshotCmd.Flags().IntVar(&snapshotMonth, "month", 0, "Month to show, 1-12 (default: current)")
	snapshotCmd.Flags().StringVar(&snapshotFilter, "tipo", "", "Only show events of this type")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", capture.DefaultWidth, "Viewport width in pixels")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", capture.DefaultHeight, "Viewport height in pixels")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	state, err := monthState(time.Now(), snapshotYear, snapshotMonth, snapshotFilter)
	if err != nil {
		return err
	}
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	// The page is served only to the local browser; auth would block it.
	conf.BasicAuth = nil

	ctx, cancel := signalContext()
	defer cancel()

	store := source.NewStore()
	fetcher := source.NewFetcher(time.Duration(conf.FetchTimeoutSeconds) * time.Second)
	source.NewRefresher(fetcher, store, conf.Sources, conf.Fallback).Run(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- web.NewServer(conf, store).Serve(srvCtx, ln)
	}()

	target := pageURL(ln.Addr().String(), state.Year, int(state.Month), state.Filter)
	appLog.Info("capturing month page", "url", target, "out", snapshotOut)

	capErr := capture.Snapshot(ctx, capture.Options{
		URL:        target,
		OutputPath: snapshotOut,
		Width:      snapshotWidth,
		Height:     snapshotHeight,
	})

	stopServer()
	if err := <-errCh; err != nil {
		appLog.Warn("snapshot server stopped with error", err)
	}
	if capErr != nil {
		return capErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), snapshotOut)
	return nil
}

// pageURL builds the month page address understood by the embedded page.
func pageURL(addr string, year, month int, filter string) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	if filter != "" {
		q.Set("tipo", filter)
	}
	u := url.URL{Scheme: "http", Host: addr, Path: "/", RawQuery: q.Encode()}
	return u.String()
}

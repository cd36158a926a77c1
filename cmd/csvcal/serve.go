package main

import (
	"time"

	"github.com/spf13/cobra"

	appLog "csvcal/internal/log"
	"csvcal/internal/source"
	"csvcal/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the month page, JSON API and iCalendar feed",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config and CSVCAL_LISTEN)")
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		conf.Listen = serveListen
	}

	appLog.Info("csvcal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"sources", len(conf.Sources),
		"fallback", conf.Fallback != "",
		"refresh", conf.Refresh,
		"fetch_timeout_seconds", conf.FetchTimeoutSeconds,
		"basic_auth", conf.BasicAuth != nil,
	)

	ctx, cancel := signalContext()
	defer cancel()

	store := source.NewStore()
	fetcher := source.NewFetcher(time.Duration(conf.FetchTimeoutSeconds) * time.Second)
	refresher := source.NewRefresher(fetcher, store, conf.Sources, conf.Fallback)

	res := refresher.Run(ctx)
	appLog.Info("initial load finished", "events", len(res.Events), "sources", len(res.Outcomes))

	if conf.Refresh != "" {
		if err := refresher.Start(ctx, conf.Refresh); err != nil {
			appLog.Error("failed to start refresh schedule", err, "refresh", conf.Refresh)
			return err
		}
	}

	srv := web.NewServer(conf, store, web.WithNextRefresh(refresher.NextRun))
	if err := srv.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server stopped", err)
		return err
	}
	appLog.Info("csvcal exiting")
	return nil
}

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	appLog "csvcal/internal/log"
	"csvcal/internal/model"
)

const defaultTimeout = 30 * time.Second

// Outcome describes what happened to one source during a load.
type Outcome struct {
	Location string `json:"location"` // redacted
	Fallback bool   `json:"fallback"`
	OK       bool   `json:"ok"`
	Events   int    `json:"events"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a full load.
type Result struct {
	Events   []model.Event
	Outcomes []Outcome
	LoadedAt time.Time
}

// cacheEntry holds the validators and body of the last 2xx response for
// one URL.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher reads CSV documents from http(s) URLs or local files.
//
// Remote documents are revalidated with If-None-Match / If-Modified-Since
// when the previous response carried an ETag or Last-Modified header. The
// cache is never used when a request fails.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a Fetcher whose HTTP requests time out after timeout.
// A zero timeout uses the package default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]cacheEntry),
	}
}

// LoadEvents fetches every primary source in order and returns their
// records concatenated. If the first source fails, fallback is read once
// in its place. Failures are logged and never returned; when everything
// fails the result is an empty list.
func (f *Fetcher) LoadEvents(ctx context.Context, primary []string, fallback string) []model.Event {
	return f.Load(ctx, primary, fallback).Events
}

// Load is LoadEvents with per-source outcomes.
func (f *Fetcher) Load(ctx context.Context, primary []string, fallback string) Result {
	res := Result{
		Events:   make([]model.Event, 0),
		Outcomes: make([]Outcome, 0, len(primary)+1),
	}

	for i, loc := range primary {
		events, err := f.fetchEvents(ctx, loc)
		res.Outcomes = append(res.Outcomes, outcome(loc, false, events, err))
		if err == nil {
			res.Events = append(res.Events, events...)
			appLog.Info("csv loaded", "source", redactURL(loc), "events", len(events))
			continue
		}

		appLog.Warn("csv load failed", err, "source", redactURL(loc))

		if i != 0 || fallback == "" {
			continue
		}
		fbEvents, fbErr := f.fetchEvents(ctx, fallback)
		res.Outcomes = append(res.Outcomes, outcome(fallback, true, fbEvents, fbErr))
		if fbErr != nil {
			appLog.Error("fallback csv load failed", fbErr, "source", redactURL(fallback))
			continue
		}
		res.Events = append(res.Events, fbEvents...)
		appLog.Info("fallback csv loaded", "source", redactURL(fallback), "events", len(fbEvents))
	}

	res.LoadedAt = time.Now()
	return res
}

func outcome(loc string, fallback bool, events []model.Event, err error) Outcome {
	o := Outcome{Location: redactURL(loc), Fallback: fallback, OK: err == nil, Events: len(events)}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

func (f *Fetcher) fetchEvents(ctx context.Context, loc string) ([]model.Event, error) {
	body, err := f.fetch(ctx, loc)
	if err != nil {
		return nil, err
	}
	return ParseCSV(string(body)), nil
}

// fetch reads one source. http(s) URLs go through the client; file://
// URLs and bare paths are read from disk.
func (f *Fetcher) fetch(ctx context.Context, loc string) ([]byte, error) {
	if loc == "" {
		return nil, errors.New("source location is empty")
	}

	if path, ok := localPath(loc); ok {
		return os.ReadFile(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	cached, haveCached := f.cached(loc)
	if haveCached {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	appLog.Debug("csv fetch start", "source", redactURL(loc))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && haveCached {
		appLog.Debug("csv not modified; using cached body", "source", redactURL(loc))
		return cached.body, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	f.remember(loc, resp.Header, body)
	return body, nil
}

func (f *Fetcher) cached(loc string) (cacheEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[loc]
	return e, ok
}

// remember keeps body for revalidation when the response has validators.
func (f *Fetcher) remember(loc string, h http.Header, body []byte) {
	e := cacheEntry{etag: h.Get("ETag"), lastModified: h.Get("Last-Modified"), body: body}

	f.mu.Lock()
	defer f.mu.Unlock()
	if e.etag == "" && e.lastModified == "" {
		delete(f.cache, loc)
		return
	}
	f.cache[loc] = e
}

func localPath(loc string) (string, bool) {
	u, err := url.Parse(loc)
	if err != nil {
		return loc, true
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return "", false
	case "file":
		if u.Path != "" {
			return u.Path, true
		}
		return u.Opaque, true
	case "":
		return loc, true
	}
	// Single-letter schemes are Windows drive letters.
	if len(u.Scheme) == 1 {
		return loc, true
	}
	return "", false
}

// redactURL hides paths and query strings of remote sources for logging.
// Published spreadsheet URLs carry their access key in the path.
//
//	https://docs.google.com/spreadsheets/d/e/KEY/pub?output=csv
//	-> https://docs.google.com/...(redacted)
func redactURL(loc string) string {
	if _, ok := localPath(loc); ok {
		return loc
	}
	u, err := url.Parse(loc)
	if err != nil || u.Host == "" {
		return "csv://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}

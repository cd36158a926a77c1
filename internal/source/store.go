package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "csvcal/internal/log"
	"csvcal/internal/model"
)

// Store holds the process-wide event list. The list is only ever replaced
// as a whole; a slice handed out by Events is never modified afterwards.
type Store struct {
	mu       sync.RWMutex
	events   []model.Event
	outcomes []Outcome
	loadedAt time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{events: []model.Event{}}
}

// Replace publishes the result of a load.
func (s *Store) Replace(res Result) {
	events := res.Events
	if events == nil {
		events = []model.Event{}
	}
	s.mu.Lock()
	s.events = events
	s.outcomes = res.Outcomes
	s.loadedAt = res.LoadedAt
	s.mu.Unlock()
}

// Events returns the current list. Callers must not modify it.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

// Status returns the outcomes and time of the last load. The zero time
// means nothing has been loaded yet.
func (s *Store) Status() ([]Outcome, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out, s.loadedAt
}

// Loader is the part of Fetcher the Refresher needs.
type Loader interface {
	Load(ctx context.Context, primary []string, fallback string) Result
}

// Refresher loads the configured feeds into a Store.
type Refresher struct {
	loader   Loader
	store    *Store
	primary  []string
	fallback string

	mu   sync.Mutex // serializes runs
	cron *cron.Cron
}

// NewRefresher wires a loader to a store for the given sources.
func NewRefresher(loader Loader, store *Store, primary []string, fallback string) *Refresher {
	return &Refresher{
		loader:   loader,
		store:    store,
		primary:  primary,
		fallback: fallback,
	}
}

// Run performs one load and publishes it.
func (r *Refresher) Run(ctx context.Context) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.loader.Load(ctx, r.primary, r.fallback)
	if ctx.Err() != nil {
		// A cancelled reload keeps the previous list.
		appLog.Info("csv load cancelled", "events", len(res.Events))
		return res
	}
	r.store.Replace(res)
	appLog.Info("event list replaced", "events", len(res.Events), "sources", len(res.Outcomes))
	return res
}

// Start schedules Run on the given cron expression until ctx is done.
// An empty schedule schedules nothing.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.Run(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	appLog.Info("csv refresh scheduled", "refresh", schedule)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// NextRun reports when the scheduled reload fires next, or the zero time
// if no schedule is running.
func (r *Refresher) NextRun() time.Time {
	if r.cron == nil {
		return time.Time{}
	}
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"csvcal/internal/auth"
	"csvcal/internal/calendar"
	"csvcal/internal/config"
	"csvcal/internal/ics"
	appLog "csvcal/internal/log"
	"csvcal/internal/model"
	"csvcal/internal/source"
)

// EventSource is what the server reads events from.
type EventSource interface {
	Events() []model.Event
	Status() ([]source.Outcome, time.Time)
}

// Server serves the month page, its JSON API and the iCalendar feed.
type Server struct {
	cfg    *config.Config
	events EventSource
	mux    *http.ServeMux

	// now is swapped in tests.
	now func() time.Time
	// nextRefresh reports the next scheduled reload, if any.
	nextRefresh func() time.Time
}

// embeddedStatic contains the month page: index.html, app.js, style.css.
//
//go:embed all:static
var embeddedStatic embed.FS

// Option customizes a Server.
type Option func(*Server)

// WithClock overrides the time source used to mark today and to pick the
// default month.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithNextRefresh exposes the refresh schedule on /api/status.
func WithNextRefresh(next func() time.Time) Option {
	return func(s *Server) { s.nextRefresh = next }
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, events EventSource, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		events: events,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "user", s.cfg.BasicAuth.Username)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	ba := s.cfg.BasicAuth
	return ba.Username != "" && (ba.Password != "" || ba.PasswordHash != "")
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	ba := *s.cfg.BasicAuth

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !auth.SecureCompare(u, ba.Username) || !checkPassword(ba, p) {
			w.Header().Set("WWW-Authenticate", `Basic realm="csvcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func checkPassword(ba config.BasicAuthConfig, password string) bool {
	if ba.PasswordHash != "" {
		ok, err := auth.VerifyPassword(password, ba.PasswordHash)
		if err != nil {
			appLog.Error("basic auth: cannot verify password hash", err)
			return false
		}
		return ok
	}
	return auth.SecureCompare(password, ba.Password)
}

// Serve listens on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ListenAndServe binds cfg.Listen and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
	return s.Serve(ctx, ln)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/month", s.handleMonth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/types", s.handleTypes)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)

	// Everything else is the embedded page.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleMonth returns the month view description.
//
// GET /api/month?year=2024&month=4&tipo=Feriado
//   - year, month: displayed month (default: current month)
//   - tipo:        type filter (default: all)
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}
	state, err := s.stateFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := calendar.Render(state, s.events.Events(), s.now())
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) stateFromQuery(r *http.Request) (calendar.State, error) {
	q := r.URL.Query()
	state := calendar.NewState(s.now())

	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return state, errors.New("invalid year")
		}
		state.Year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return state, errors.New("invalid month")
		}
		state.Month = time.Month(m)
	}
	return state.WithFilter(q.Get("tipo")), nil
}

// handleEvents returns the loaded records, optionally filtered by tipo.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}
	events := calendar.FilterEvents(s.events.Events(), r.URL.Query().Get("tipo"))
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, calendar.Types(s.events.Events()))
}

// statusResponse is the JSON response shape for /api/status.
type statusResponse struct {
	LoadedAt    *time.Time       `json:"loaded_at"`
	NextRefresh *time.Time       `json:"next_refresh,omitempty"`
	Events      int              `json:"events"`
	Sources     []source.Outcome `json:"sources"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}
	outcomes, loadedAt := s.events.Status()
	resp := statusResponse{
		Events:  len(s.events.Events()),
		Sources: outcomes,
	}
	if !loadedAt.IsZero() {
		resp.LoadedAt = &loadedAt
	}
	if s.nextRefresh != nil {
		if next := s.nextRefresh(); !next.IsZero() {
			resp.NextRefresh = &next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleICS serves the loaded events as an iCalendar subscription feed.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}
	events := calendar.FilterEvents(s.events.Events(), r.URL.Query().Get("tipo"))
	feed := ics.Export(events, ics.ExportOptions{Name: s.cfg.ICSName, Now: s.now()})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}

// staticFileServer serves the embedded page from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// /api/* never falls through to the page.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func requireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

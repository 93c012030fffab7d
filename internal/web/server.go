package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"flowmind/internal/logging"
	"flowmind/internal/services"
	"flowmind/internal/store"
	"flowmind/internal/syncer"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// SyncRunner triggers a tracker sync from the UI. Nil disables the endpoint.
type SyncRunner interface {
	Run(ctx context.Context) (syncer.Report, error)
}

// Server is the approval UI HTTP server.
type Server struct {
	st     *store.Store
	sync   SyncRunner
	logger *slog.Logger
	bind   string

	httpServer *http.Server
	listener   net.Listener
}

// NewServer builds the approval server bound to addr.
func NewServer(st *store.Store, sync SyncRunner, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{st: st, sync: sync, logger: logger, bind: addr}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /approve/{id}", s.handleApprove)
	mux.HandleFunc("POST /sync", s.handleSync)
	mux.HandleFunc("GET /api/requirements", s.handleAPIRequirements)
	mux.HandleFunc("GET /api/actions", s.handleAPIActions)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "web", "listen", s.bind, err)
	}
	s.listener = listener
	s.logger.Info("approval ui listening", logging.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Addr reports the bound address once Start has listened.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

type indexData struct {
	Requirements []store.Requirement
	TestCounts   map[string]int
	Notice       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		requirements []store.Requirement
		err          error
	)
	switch r.URL.Query().Get("status") {
	case "approved":
		requirements, err = s.st.LoadApproved(ctx)
	case "all":
		requirements, err = s.st.LoadAll(ctx)
	default:
		requirements, err = s.st.LoadPending(ctx)
	}
	if err != nil {
		s.fail(w, "load requirements", err)
		return
	}

	counts := make(map[string]int, len(requirements))
	for _, req := range requirements {
		cases, err := s.st.TestCasesFor(ctx, req.ID)
		if err != nil {
			s.fail(w, "load test cases", err)
			return
		}
		counts[req.ID] = len(cases)
	}

	data := indexData{
		Requirements: requirements,
		TestCounts:   counts,
		Notice:       r.URL.Query().Get("notice"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index failed", logging.Error(err))
	}
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.st.Approve(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrValidation):
		http.Error(w, "unknown requirement "+id, http.StatusNotFound)
		return
	case err != nil:
		s.fail(w, "approve", err)
		return
	}
	s.logger.Info("requirement approved", logging.String("id", id))
	http.Redirect(w, r, "/?notice=Approved+"+id, http.StatusSeeOther)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		http.Error(w, "tracker sync is not configured", http.StatusConflict)
		return
	}
	report, err := s.sync.Run(r.Context())
	if err != nil {
		s.fail(w, "sync", err)
		return
	}
	s.logger.Info("sync triggered from ui",
		logging.Int("stories", report.Stories),
		logging.Int("tasks", report.Tasks),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed))
	notice := "Synced+" + strconv.Itoa(report.Stories) + "+stories,+" + strconv.Itoa(report.Tasks) + "+tasks"
	http.Redirect(w, r, "/?status=approved&notice="+notice, http.StatusSeeOther)
}

func (s *Server) handleAPIRequirements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requirements, err := s.st.LoadAll(ctx)
	if err != nil {
		s.fail(w, "load requirements", err)
		return
	}
	type item struct {
		store.Requirement
		TestCases []store.TestCase `json:"test_cases"`
	}
	items := make([]item, 0, len(requirements))
	for _, req := range requirements {
		cases, err := s.st.TestCasesFor(ctx, req.ID)
		if err != nil {
			s.fail(w, "load test cases", err)
			return
		}
		items = append(items, item{Requirement: req, TestCases: cases})
	}
	writeJSON(w, items)
}

func (s *Server) handleAPIActions(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	actions, err := s.st.RecentActions(r.Context(), r.URL.Query().Get("session"), limit)
	if err != nil {
		s.fail(w, "load actions", err)
		return
	}
	writeJSON(w, actions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", logging.String("op", op), logging.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// Package web serves the issuedb dashboard and JSON API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"issuedb/internal/config"
	"issuedb/internal/db"
	"issuedb/internal/watcher"
	"issuedb/internal/web/sse"
)

// Server wires the stores, the SSE broadcaster and the HTTP router.
type Server struct {
	cfg   *config.Config
	store *db.Store

	issues     *db.IssueStore
	comments   *db.CommentStore
	audits     *db.AuditStore
	deps       *db.DependencyStore
	times      *db.TimeStore
	links      *db.LinkStore
	refs       *db.CodeRefStore
	workspace  *db.WorkspaceStore
	duplicates float64

	broadcaster *sse.Broadcaster
	router      *chi.Mux
}

// NewServer creates a Server around an open store.
func NewServer(cfg *config.Config, store *db.Store) *Server {
	s := &Server{
		cfg:         cfg,
		store:       store,
		issues:      db.NewIssueStore(store),
		comments:    db.NewCommentStore(store),
		audits:      db.NewAuditStore(store),
		deps:        db.NewDependencyStore(store),
		times:       db.NewTimeStore(store),
		links:       db.NewLinkStore(store),
		refs:        db.NewCodeRefStore(store),
		workspace:   db.NewWorkspaceStore(store),
		duplicates:  cfg.DuplicateThreshold,
		broadcaster: sse.NewBroadcaster(),
		router:      chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", serveIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/events", s.broadcaster.HandleSSE)

	r.Route("/api", func(r chi.Router) {
		r.Route("/issues", func(r chi.Router) {
			r.Get("/", s.handleListIssues)
			r.Post("/", s.handleCreateIssue)
			r.Post("/stop", s.handleStopWork)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetIssue)
				r.Put("/", s.handleUpdateIssue)
				r.Delete("/", s.handleDeleteIssue)
				r.Get("/comments", s.handleListComments)
				r.Post("/comments", s.handleAddComment)
				r.Get("/similar", s.handleSimilar)
				r.Get("/audit", s.handleIssueAudit)
				r.Get("/time", s.handleIssueTime)
				r.Get("/dependencies", s.handleDependencies)
				r.Get("/links", s.handleLinks)
				r.Get("/refs", s.handleRefs)
				r.Post("/start", s.handleStartWork)
			})
		})

		r.Delete("/comments/{id}", s.handleDeleteComment)
		r.Get("/next", s.handleNext)
		r.Get("/summary", s.handleSummary)
		r.Get("/audit", s.handleAudit)
		r.Get("/duplicates", s.handleDuplicates)
	})
}

// Run serves HTTP and watches the database file until ctx is done.
// File changes from other processes are pushed to connected dashboards.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.WebAddr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	w, err := watcher.New(s.cfg.DBPath, func() {
		s.broadcaster.Broadcast(sse.Event{Type: "db_changed"})
	})
	if err != nil {
		log.Warn().Err(err).Msg("File watcher unavailable, dashboards will not auto-refresh")
	} else {
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start file watcher")
		}
		defer w.Stop()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("Web server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// requestLogger logs each request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

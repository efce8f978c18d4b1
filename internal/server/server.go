// Package server exposes builder sessions over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/session"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// Config holds server configuration.
type Config struct {
	Addr string
	// Store persists drafts. Defaults to an in-memory store.
	Store session.Store
	// Publisher publishes documents upstream. Publishing is disabled when nil.
	Publisher session.Publisher
	Engine    *operations.Engine
	Renderers *render.Registry
	Validator *validation.Validator
	// RequestTimeout bounds every request when positive.
	RequestTimeout time.Duration
}

// Server routes builder requests to open sessions.
type Server struct {
	cfg      Config
	sessions *sessionTable
	router   chi.Router
}

// New fills in configuration defaults and registers all routes.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		cfg.Store = session.NewMemoryStore()
	}
	if cfg.Engine == nil {
		cfg.Engine = operations.New()
	}
	if cfg.Renderers == nil {
		renderers, err := render.DefaultRegistry(render.WithEngine(cfg.Engine))
		if err != nil {
			return nil, err
		}
		cfg.Renderers = renderers
	}
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}

	s := &Server{
		cfg: cfg,
		sessions: &sessionTable{
			open:    make(map[string]*entry),
			store:   cfg.Store,
			options: []session.Option{session.WithEngine(cfg.Engine)},
		},
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(api chi.Router) {
		api.Get("/field-types", s.listFieldTypes)

		api.Post("/sessions", s.createSession)
		api.Get("/sessions", s.listSessions)

		api.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Get("/", s.withSession(s.getSession))
			sr.Patch("/", s.withSession(s.updateSession))
			sr.Delete("/", s.deleteSession)

			sr.Patch("/document", s.withSession(s.patchDocument))
			sr.Get("/changes", s.withSession(s.getChanges))
			sr.Post("/revert", s.withSession(s.revert))

			sr.Post("/drag", s.withSession(s.drag))
			sr.Delete("/drag", s.withSession(s.cancelDrag))
			sr.Post("/drop", s.withSession(s.drop))
			sr.Post("/select", s.withSession(s.selectField))
			sr.Post("/reorder", s.withSession(s.reorder))
			sr.Get("/inspector", s.withSession(s.getInspector))

			sr.Get("/fields", s.withSession(s.listFields))
			sr.Post("/fields", s.withSession(s.addField))
			sr.Get("/fields/{name}", s.withSession(s.getField))
			sr.Delete("/fields/{name}", s.withSession(s.deleteField))
			sr.Patch("/fields/{name}/schema", s.withSession(s.patchFieldSchema))
			sr.Patch("/fields/{name}/ui", s.withSession(s.patchFieldUI))
			sr.Post("/fields/{name}/rename", s.withSession(s.renameField))
			sr.Post("/fields/{name}/required", s.withSession(s.toggleRequired))
			sr.Put("/fields/{name}/condition", s.withSession(s.putCondition))
			sr.Delete("/fields/{name}/condition", s.withSession(s.deleteCondition))

			sr.Get("/preview", s.withSession(s.previewJSON))
			sr.Get("/preview.html", s.withSession(s.previewHTML))
			sr.Post("/validate", s.withSession(s.validate))

			sr.Post("/save", s.withSession(s.save))
			sr.Post("/publish", s.withSession(s.publish))
		})
	})
	return r
}

// Run starts the HTTP server and shuts it down when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// entry serialises gestures on one open session.
type entry struct {
	mu      sync.Mutex
	session *session.Session
}

// sessionTable holds the open sessions. Sessions missing from memory are
// reopened from the draft store.
type sessionTable struct {
	mu      sync.Mutex
	open    map[string]*entry
	store   session.Store
	options []session.Option
}

func (t *sessionTable) create(record session.Record) *entry {
	e := &entry{session: session.Open(record, t.options...)}
	t.mu.Lock()
	t.open[e.session.ID()] = e
	t.mu.Unlock()
	return e
}

func (t *sessionTable) get(ctx context.Context, id string) (*entry, error) {
	t.mu.Lock()
	e, ok := t.open[id]
	t.mu.Unlock()
	if ok {
		return e, nil
	}

	record, err := t.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.open[id]; ok {
		return e, nil
	}
	e = &entry{session: session.Open(record, t.options...)}
	t.open[id] = e
	return e, nil
}

// close forgets an open session. It reports whether one was open.
func (t *sessionTable) close(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.open[id]
	delete(t.open, id)
	return ok
}

func (t *sessionTable) snapshot() []*entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entry, 0, len(t.open))
	for _, e := range t.open {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].session.ID() < out[j].session.ID()
	})
	return out
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves {id} and runs next while holding the session lock.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.sessions.get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			errorToHTTP(w, err)
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		next(w, r, e.session)
	}
}

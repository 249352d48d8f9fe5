// Package server hosts the render service: publish and preview rendering,
// schema registration, and the block lifecycle over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/pipeline"
	"github.com/hanscompark/castleblock/pkg/render"
	"github.com/hanscompark/castleblock/pkg/store"
)

// DefaultMaxBodyBytes bounds request bodies when Deps.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// Deps are the collaborators of the handler.
type Deps struct {
	Runner *pipeline.Runner
	Blocks *store.Blocks
	Logger *log.Logger

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics *Metrics

	MaxBodyBytes  int64
	SchemaVersion block.Version
}

type api struct {
	runner        *pipeline.Runner
	blocks        *store.Blocks
	logger        *log.Logger
	maxBody       int64
	schemaVersion block.Version
}

// NewHandler builds the router.
func NewHandler(d Deps) http.Handler {
	a := &api{
		runner:        d.Runner,
		blocks:        d.Blocks,
		logger:        d.Logger,
		maxBody:       d.MaxBodyBytes,
		schemaVersion: d.SchemaVersion,
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	if a.maxBody <= 0 {
		a.maxBody = DefaultMaxBodyBytes
	}
	if !a.schemaVersion.Valid() {
		a.schemaVersion = block.Current
	}
	if a.runner == nil {
		a.runner = pipeline.NewRunner(nil, nil, a.logger)
	}
	if a.blocks == nil {
		a.blocks = store.NewBlocks(store.NewMemoryStore())
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(a.logger))
	r.Use(middleware.Recoverer)
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/blocks", func(r chi.Router) {
			r.Get("/schema", a.schema)
			r.Post("/render", a.renderBody(render.ModePublish))
			r.Post("/preview", a.renderBody(render.ModePreview))
			r.Post("/migrate", a.migrate)
		})
		r.Route("/pages/{pageID}/blocks", func(r chi.Router) {
			r.Use(validPageID)
			r.Post("/", a.insert)
			r.Get("/", a.list)
			r.Route("/{blockID}", func(r chi.Router) {
				r.Use(validBlockID)
				r.Get("/", a.get)
				r.Put("/", a.replace)
				r.Patch("/", a.patch)
				r.Delete("/", a.remove)
				r.Get("/html", a.html)
			})
		})
	})
	return r
}

// Server is the HTTP listener of the render service.
type Server struct {
	srv    *http.Server
	logger *log.Logger
}

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// New wraps h in an http.Server.
func New(opts Options, h http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	idle := opts.IdleTimeout
	if idle == 0 {
		idle = 60 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           h,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       idle,
		},
		logger: logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// ListenAndServe listens on the configured address. It returns nil after a
// graceful Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.srv.Shutdown(ctx)
}

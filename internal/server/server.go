package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
	"github.com/KaramelBytes/csvcharts/internal/catalog"
	"github.com/KaramelBytes/csvcharts/internal/dashboard"
	"github.com/KaramelBytes/csvcharts/internal/render"
)

// Catalog is the dataset selector the server exposes.
type Catalog interface {
	List() []*catalog.Entry
	Lookup(key string) (*catalog.Entry, error)
}

// Options configures a Server.
type Options struct {
	Loader         dashboard.Loader
	Aggregator     analysis.Aggregator
	ChartWidth     int
	ChartHeight    int
	CacheTTL       time.Duration
	LoadTimeout    time.Duration
	AllowedOrigins []string
	Log            logrus.FieldLogger
}

// board is the dashboard of one catalog dataset.
type board struct {
	ctrl     *dashboard.Controller
	source   string
	loadedAt time.Time
}

// Server serves the dashboard over HTTP, one controller per catalog entry.
type Server struct {
	opt    Options
	cat    Catalog
	log    logrus.FieldLogger
	group  singleflight.Group
	now    func() time.Time
	router chi.Router

	mu     sync.Mutex
	boards map[string]*board
}

// New builds a Server and its routes.
func New(cat Catalog, opt Options) *Server {
	if opt.Log == nil {
		opt.Log = logrus.StandardLogger()
	}
	if opt.LoadTimeout <= 0 {
		opt.LoadTimeout = 30 * time.Second
	}
	if len(opt.AllowedOrigins) == 0 {
		opt.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		opt:    opt,
		cat:    cat,
		log:    opt.Log,
		now:    time.Now,
		boards: make(map[string]*board),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opt.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/datasets", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/columns", s.handleColumns)
			r.Get("/summary", s.handleSummary)
			r.Get("/aggregate", s.handleAggregate)
			r.Get("/chart", s.handleChart)
		})
	})
	return r
}

// ListenAndServe runs the server on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("dashboard server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.closeBoards()
		return nil
	}
}

// Controller returns the dashboard for a catalog dataset, loading or
// reloading it when missing or older than the cache TTL. Concurrent callers
// for the same dataset share one load.
func (s *Server) Controller(ctx context.Context, name string) (*dashboard.Controller, error) {
	entry, err := s.cat.Lookup(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	b := s.boards[entry.ID]
	if b != nil && s.fresh(b, entry) {
		s.mu.Unlock()
		return b.ctrl, nil
	}
	s.mu.Unlock()

	v, err, shared := s.group.Do(entry.ID, func() (any, error) {
		return s.load(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.WithField("dataset", entry.Name).Debug("joined in-flight load")
	}
	return v.(*dashboard.Controller), nil
}

func (s *Server) fresh(b *board, e *catalog.Entry) bool {
	if b.source != e.Source || b.ctrl.Dataset() == nil {
		return false
	}
	return s.opt.CacheTTL > 0 && s.now().Sub(b.loadedAt) < s.opt.CacheTTL
}

// load runs detached from the request so one client hanging up does not
// fail the callers sharing it.
func (s *Server) load(ctx context.Context, e *catalog.Entry) (*dashboard.Controller, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opt.LoadTimeout)
	defer cancel()

	s.mu.Lock()
	b := s.boards[e.ID]
	if b != nil && s.fresh(b, e) {
		s.mu.Unlock()
		return b.ctrl, nil
	}
	if b == nil {
		surface := render.NewSurface(render.NewEChartsBackend(s.opt.ChartWidth, s.opt.ChartHeight))
		b = &board{ctrl: dashboard.New(s.opt.Loader, s.opt.Aggregator, surface, s.log.WithField("dataset", e.Name))}
		s.boards[e.ID] = b
	}
	s.mu.Unlock()

	err := b.ctrl.Open(ctx, e.Source)

	s.mu.Lock()
	defer s.mu.Unlock()
	b.source = e.Source
	b.loadedAt = s.now()
	if err != nil {
		if b.ctrl.Dataset() == nil {
			return nil, err
		}
		s.log.WithError(err).WithField("dataset", e.Name).Warn("reload failed, serving previous data")
	}
	return b.ctrl, nil
}

// Warm loads every catalog dataset, at most limit at a time. Failures are
// logged and do not stop the others.
func (s *Server) Warm(ctx context.Context, limit int) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, e := range s.cat.List() {
		e := e
		g.Go(func() error {
			if _, err := s.Controller(gctx, e.Name); err != nil {
				s.log.WithError(err).WithField("dataset", e.Name).Warn("preload failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Server) closeBoards() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boards {
		b.ctrl.Surface().Close()
	}
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
				"req_id":   middleware.GetReqID(r.Context()),
			}).Debug("request")
		})
	}
}

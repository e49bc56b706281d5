// Package preview serves a built site locally and rebuilds it when the logs
// change, notifying open pages over SSE so they reload.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/studylog/internal/sse"
)

// BuildFunc regenerates the site and returns the number of pages written.
type BuildFunc func(ctx context.Context) (int, error)

// SnapshotFunc fingerprints the current logs.
type SnapshotFunc func() (string, error)

// Server is the local preview server.
type Server struct {
	siteDir  string
	logsDir  string
	build    BuildFunc
	snapshot SnapshotFunc
	logger   *slog.Logger
	broker   *sse.Broker
	debounce time.Duration

	ready atomic.Bool

	mu   sync.Mutex
	last string
}

// New creates a preview server for the site in siteDir built from logsDir.
func New(siteDir, logsDir string, build BuildFunc, snapshot SnapshotFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		siteDir:  siteDir,
		logsDir:  logsDir,
		build:    build,
		snapshot: snapshot,
		logger:   logger,
		broker:   sse.NewBroker(15 * time.Second),
		debounce: 200 * time.Millisecond,
	}
}

// Close stops the event broker and disconnects live-reload clients.
func (s *Server) Close() { s.broker.Close() }

// Rebuild rebuilds the site when the logs snapshot differs from the last
// successful build, or always when force is set. It reports whether a build
// ran.
func (s *Server) Rebuild(ctx context.Context, force bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot()
	if err != nil {
		return false, fmt.Errorf("preview: snapshot: %w", err)
	}
	if !force && snap == s.last {
		s.logger.Debug("preview: logs unchanged, skipping rebuild")
		return false, nil
	}

	pages, err := s.build(ctx)
	if err != nil {
		s.broker.PublishFailed(err)
		return true, fmt.Errorf("preview: build: %w", err)
	}
	s.last = snap
	s.ready.Store(true)
	s.broker.PublishRebuilt(snap, pages)
	s.logger.Info("preview: rebuilt", slog.Int("pages", pages), slog.String("snapshot", snap))
	return true, nil
}

// Handler returns the HTTP handler serving health checks, the live-reload
// stream and the static site.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "building")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Get("/_events", s.broker.ServeHTTP)
	r.Handle("/*", s.static())
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// static serves files from siteDir, answering unknown paths with 404.html.
func (s *Server) static() http.Handler {
	files := http.FileServer(http.Dir(s.siteDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(s.siteDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(name); err != nil {
			body, readErr := os.ReadFile(filepath.Join(s.siteDir, "404.html"))
			if readErr != nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write(body)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// Run builds the site once, then serves it on addr while watching the logs
// until ctx is cancelled or the process receives SIGINT or SIGTERM.
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.Rebuild(ctx, true); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return Watch(gCtx, s.logsDir, s.debounce, s.logger, func() {
			if _, err := s.Rebuild(gCtx, false); err != nil {
				s.logger.Error("preview: rebuild failed", slog.String("error", err.Error()))
			}
		})
	})

	g.Go(func() error {
		s.logger.Info("preview: listening", slog.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			s.logger.Info("preview: received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		// Close SSE streams first; Shutdown waits for active handlers.
		s.broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("preview: shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Info("preview: stopped")
	return nil
}

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/raphaelgruber/chatexport/internal/metrics"
	"github.com/raphaelgruber/chatexport/internal/view"
)

// shutdownTimeout bounds graceful shutdown of the bridge server.
const shutdownTimeout = 5 * time.Second

// Status is the body of GET /status.
type Status struct {
	Connected  bool                        `json:"connected"`
	Location   string                      `json:"location"`
	View       string                      `json:"view"`
	Controls   int                         `json:"controls"`
	Operations []metrics.OperationSnapshot `json:"operations,omitempty"`
}

// NewRouter mounts the hub at /ws next to /health and /status probes.
// m may be nil.
func NewRouter(h *Hub, m *metrics.Collector) http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer, middleware.RealIP)

	r.Get("/ws", h.ServeWS)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		loc := h.Current()
		render.JSON(w, r, Status{
			Connected:  h.Connected(),
			Location:   loc,
			View:       view.Classify(loc).String(),
			Controls:   h.Controls(),
			Operations: m.Snapshot().Operations,
		})
	})
	return r
}

// Server runs the bridge HTTP endpoint.
type Server struct {
	hs     *http.Server
	logger *slog.Logger
}

// NewServer creates a bridge server listening on addr.
func NewServer(addr string, h *Hub, m *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hs: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, m),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Serve blocks until ctx is done or the listener fails, then shuts the
// server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("bridge listening", "url", "ws://"+s.hs.Addr+"/ws")
		errCh <- s.hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.hs.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down bridge")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown bridge: %w", err)
	}
	return nil
}

package avatar

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"net/http"
	"time"
)

//go:embed index.html
var page []byte

type Server struct {
	hub     *Hub
	metrics http.Handler
	srv     *http.Server
}

// NewServer serves the sphere page at /, frames at /ws and, when metrics
// is non-nil, Prometheus metrics at /metrics.
func NewServer(addr string, hub *Hub, metrics http.Handler) *Server {
	s := &Server{hub: hub, metrics: metrics}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	mux.Handle("GET /ws", s.hub)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Run listens until ctx is cancelled, then shuts down and drops viewers.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("Avatar ready", "url", "http://"+ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = s.srv.Shutdown(shutdownCtx)
	s.hub.Close()
	return err
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/assetvuln/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/assetvuln/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/assetvuln/internal/adapters/web/websocket"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr          string
	Hub           *websocket.Hub
	CVEHandler    *handlers.CVEHandler
	VulnHandler   *handlers.VulnerabilityHandler
	ReportHandler *handlers.ReportHandler

	updateLimiter *middleware.RateLimiter
	srv           *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, hub *websocket.Hub, cve *handlers.CVEHandler, vuln *handlers.VulnerabilityHandler, report *handlers.ReportHandler) *Server {
	return &Server{
		Addr:          addr,
		Hub:           hub,
		CVEHandler:    cve,
		VulnHandler:   vuln,
		ReportHandler: report,
		updateLimiter: middleware.NewRateLimiter(10, 1*time.Minute), // 10 manual updates per minute
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	// "assetvuln-server" is the name of the operation (span)
	return otelhttp.NewHandler(SetupRoutes(s), "assetvuln-server")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Hub.Close()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("web server shutdown error", "err", err)
		}
	}()

	slog.Info("web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

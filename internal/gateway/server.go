// Package gateway serves the webhook HTTP endpoints.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soyeahso/scambot/internal/config"
	"github.com/soyeahso/scambot/internal/hooks"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/soyeahso/scambot/internal/pipeline"
)

// WebhookHandler processes a verified-or-not webhook delivery.
type WebhookHandler interface {
	Handle(ctx context.Context, body []byte, signature string) pipeline.Summary
}

// Server is the scambot HTTP server.
type Server struct {
	cfg      config.ServerConfig
	webhook  WebhookHandler
	hooks    *hooks.Manager
	log      *logging.Logger
	listener net.Listener
	budget   time.Duration

	// inflight tracks deliveries still processing after their ack.
	inflight   sync.WaitGroup
	startedAt  time.Time
	httpServer *http.Server
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithListener serves on an existing listener instead of binding one.
func WithListener(ln net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = ln
	}
}

// WithHandleBudget overrides the per-delivery processing budget.
func WithHandleBudget(d time.Duration) ServerOption {
	return func(s *Server) {
		s.budget = d
	}
}

// New creates a new server.
func New(cfg config.ServerConfig, wh WebhookHandler, log *logging.Logger, opts ...ServerOption) *Server {
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = config.DefaultCallbackPath
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		cfg:     cfg,
		webhook: wh,
		log:     log.Sub("gateway"),
		budget:  cfg.HandleBudget(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully. In-flight webhook deliveries are allowed to finish.
func (s *Server) Start(ctx context.Context) error {
	ln := s.listener
	if ln == nil {
		addr := resolveBindAddr(s.cfg)
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.writeTimeout(),
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("callback", s.cfg.CallbackPath).
		Msg("server ready")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventServerStart, map[string]any{
			"addr": ln.Addr().String(),
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		uptime := s.Uptime()
		s.log.Info().Dur("uptime", uptime).Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("graceful shutdown incomplete")
		}
		s.waitInflight()
		if s.hooks != nil {
			s.hooks.Emit(shutdownCtx, hooks.EventServerStop, map[string]any{
				"uptimeSeconds": uptime.Seconds(),
			})
			s.hooks.Wait()
		}
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// ackGrace is the headroom between the processing budget and the write
// deadline, so the acknowledgement is always written.
const ackGrace = 15 * time.Second

func (s *Server) writeTimeout() time.Duration {
	return s.budget + ackGrace
}

// waitInflight waits for detached deliveries, at most one budget.
func (s *Server) waitInflight() {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.budget):
		s.log.Warn().Dur("budget", s.budget).Msg("deliveries still processing at shutdown")
	}
}

// Uptime returns how long the server has been serving.
func (s *Server) Uptime() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soyeahso/scambot/internal/pipeline"
	"github.com/soyeahso/scambot/internal/version"
	"github.com/soyeahso/scambot/internal/webhook"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route(s.cfg.CallbackPath, func(r chi.Router) {
		r.Use(callbackCORS)
		r.Options("/", handleOK)
		r.Get("/", handleOK)
		r.Post("/", s.handleCallback)
	})

	r.NotFound(handleNotFound)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Hello, Scam Bot!")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: version.Version})
}

// handleCallback runs the pipeline and always acknowledges with 200 so
// the platform does not redeliver. Processing that outlives the budget
// is acknowledged early and finishes in the background under a context
// that expires with the budget.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.log.Warn().Err(err).Msg("reading webhook body failed")
		handleOK(w, r)
		return
	}

	reqID := w.Header().Get(requestIDHeader)
	sig := r.Header.Get(webhook.SignatureHeader)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.budget)
	done := make(chan pipeline.Summary, 1)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Str("requestId", reqID).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("webhook handler panicked")
				done <- pipeline.Summary{}
			}
		}()
		done <- s.webhook.Handle(ctx, body, sig)
	}()

	select {
	case sum := <-done:
		s.log.Debug().
			Bool("verified", sum.Verified).
			Int("events", sum.Events).
			Int("handled", sum.Handled).
			Int("skipped", sum.Skipped).
			Int("failed", sum.Failed).
			Str("requestId", reqID).
			Msg("webhook processed")
	case <-ctx.Done():
		s.log.Warn().
			Dur("budget", s.budget).
			Str("requestId", reqID).
			Msg("webhook processing exceeded budget, acknowledged early")
	}

	handleOK(w, r)
}

func handleOK(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

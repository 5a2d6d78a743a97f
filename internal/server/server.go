// Package server is the HTTP transport: one signed interactions endpoint in
// front of the dispatch engine, plus a health check.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hookcord/internal/config"
	"github.com/gosuda/hookcord/internal/engine"
	"github.com/gosuda/hookcord/internal/server/middleware"
)

// Server is the HTTP server that wires the interactions route and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	engine     *engine.Engine
}

// New creates a Server with all routes wired. ctx bounds the lifetime of the
// rate limiter's cleanup goroutine.
func New(ctx context.Context, cfg *config.Config, eng *engine.Engine) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)

	s := &Server{
		router: router,
		engine: eng,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	router.Route("/interactions", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		if cfg.InsecureSkipVerify {
			log.Warn().Msg("signature verification disabled, do not run this in production")
		} else {
			r.Use(middleware.VerifySignature(cfg.PublicKey))
		}
		r.Post("/", s.handleInteraction)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// handleInteraction feeds a verified event through the engine and writes the
// single response body back. The engine owns all dispatch-level error
// handling; only undecodable payloads surface here as 400s.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	resp, err := s.engine.Handle(r.Context(), body)
	if err != nil {
		if errors.Is(err, engine.ErrMalformedEvent) {
			http.Error(w, "malformed interaction event", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("interaction dispatch failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Error().Err(encodeErr).Msg("write interaction response")
	}
}

// Handler exposes the wired router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

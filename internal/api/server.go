// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/hookbridge/internal/config"
	"github.com/tomtom215/hookbridge/internal/logging"
)

// Server runs the admin HTTP server as a supervised service.
type Server struct {
	srv *http.Server
}

// NewServer builds the HTTP server around the assembled router.
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      cfg.Timeout,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * cfg.Timeout,
		},
	}
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.srv.Addr).Msg("Admin API listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// String names the server in supervisor logs.
func (s *Server) String() string { return "admin-api" }

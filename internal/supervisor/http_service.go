// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/logging"
)

// HTTPService runs the HTTP server as a suture service. Serve blocks until
// the listener fails or the supervisor cancels the context, at which point
// the server drains in-flight requests within the shutdown timeout.
type HTTPService struct {
	cfg     config.ServerConfig
	handler http.Handler
}

// NewHTTPService creates the HTTP server service.
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{cfg: cfg, handler: handler}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("HTTP server shutdown incomplete, closing")
		_ = server.Close()
	}
	logging.Info().Msg("HTTP server stopped")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *HTTPService) String() string {
	return "http-server"
}

// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/hookbridge/internal/metrics"
)

// NewRouter assembles the admin HTTP router. token, when non-empty, guards
// the /api/v1 subtree with bearer authentication; health probes and metrics
// stay open for orchestrators and scrapers.
func NewRouter(h *Handlers, token string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/healthz", h.handleLiveness)
	r.Get("/readyz", h.handleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if token != "" {
			r.Use(bearerAuth(token))
		}
		r.Get("/hooks", h.handleListHooks)
		r.Post("/hooks", h.handleUpsertHook)
		r.Delete("/hooks/{id}", h.handleDeleteHook)
		r.Get("/hooks/meta", h.handleHookMeta)
	})

	return r
}

// bearerAuth rejects requests whose Authorization header does not carry the
// configured token. The comparison is constant time.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			got, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				NewResponseWriter(w, r).Unauthorized("missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestMetrics records per-route request durations. The route pattern is
// used rather than the raw path so ids do not explode label cardinality.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.APIRequestDuration.
			WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

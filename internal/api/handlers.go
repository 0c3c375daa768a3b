// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/hookbridge/internal/logging"
	"github.com/tomtom215/hookbridge/internal/models"
)

// HookStore is the slice of the hook store the API mutates.
type HookStore interface {
	List() []models.HookConfig
	Upsert(models.HookConfig) (models.HookConfig, error)
	Delete(id string) error
}

// Pinger reports host connectivity for the readiness probe. Implemented by
// the Jellyfin client; nil disables the host check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies of the admin endpoints.
type Handlers struct {
	store HookStore
	host  Pinger
}

// NewHandlers wires the admin endpoints.
func NewHandlers(store HookStore, host Pinger) *Handlers {
	return &Handlers{store: store, host: host}
}

// handleListHooks returns the hook list in configuration order.
//
// GET /api/v1/hooks
func (h *Handlers) handleListHooks(w http.ResponseWriter, r *http.Request) {
	hooks := h.store.List()
	if hooks == nil {
		hooks = []models.HookConfig{}
	}
	NewResponseWriter(w, r).Success(hooks)
}

// handleUpsertHook creates or replaces a hook. A request without an id
// creates; a request with a known id replaces it in place.
//
// POST /api/v1/hooks
func (h *Handlers) handleUpsertHook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var hook models.HookConfig
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}

	created := hook.ID == ""
	saved, err := h.store.Upsert(hook)
	if err != nil {
		rw.ValidationError(err.Error())
		return
	}

	logging.Info().
		Str("hook_id", saved.ID).
		Str("url", saved.URL).
		Bool("created", created).
		Msg("Hook saved")

	if created {
		rw.Created(saved)
		return
	}
	rw.Success(saved)
}

// handleDeleteHook removes a hook. Deleting an unknown id still answers 204.
//
// DELETE /api/v1/hooks/{id}
func (h *Handlers) handleDeleteHook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		logging.Error().Err(err).Str("hook_id", id).Msg("Hook deletion failed")
		rw.InternalError("failed to delete hook")
		return
	}

	logging.Info().Str("hook_id", id).Msg("Hook deleted")
	rw.NoContent()
}

// hookMeta lists the event kinds and formats a hook editor can choose from.
type hookMeta struct {
	Events  []models.HookEvent  `json:"events"`
	Formats []models.HookFormat `json:"formats"`
}

// handleHookMeta returns the editable vocabulary.
//
// GET /api/v1/hooks/meta
func (h *Handlers) handleHookMeta(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(hookMeta{
		Events:  models.AllHookEvents(),
		Formats: models.AllHookFormats(),
	})
}

// handleLiveness answers as long as the process serves HTTP.
//
// GET /healthz
func (h *Handlers) handleLiveness(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// handleReadiness additionally requires host connectivity when a host is
// configured.
//
// GET /readyz
func (h *Handlers) handleReadiness(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.host != nil {
		if err := h.host.Ping(r.Context()); err != nil {
			rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "host unreachable: "+err.Error())
			return
		}
	}
	rw.Success(map[string]string{"status": "ready"})
}

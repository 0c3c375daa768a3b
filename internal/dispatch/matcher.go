// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import "github.com/tomtom215/hookbridge/internal/models"

// Match selects the hooks that fire for event, preserving hook order.
//
// A hook matches when its event set contains the event's kind and its user
// filter accepts the event's user. An empty filter accepts every event; a
// non-empty filter only accepts events that carry a user with that exact id,
// so user-filtered hooks never fire for user-less events.
func Match(hooks []models.HookConfig, event *models.EventInfo) []models.HookConfig {
	var matched []models.HookConfig
	for _, h := range hooks {
		if !h.HasEvent(event.Event) {
			continue
		}
		if h.UserID != "" && (event.User == nil || event.User.ID != h.UserID) {
			continue
		}
		matched = append(matched, h)
	}
	return matched
}

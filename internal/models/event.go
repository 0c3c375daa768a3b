// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package models

// EventInfo is the canonical event payload handed to the dispatch engine.
// It is constructed fresh per dispatch, treated as immutable once built, and
// never persisted.
//
// User, Item and Session are optional: a library event carries no user, a
// pending-restart event carries neither item nor session. Handlers that
// require a user or item and cannot resolve one drop the event instead of
// emitting a partially populated record.
type EventInfo struct {
	Event   HookEvent  `json:"event"`
	User    *User      `json:"user,omitempty"`
	Item    *Item      `json:"item,omitempty"`
	Session *Session   `json:"session,omitempty"`
	Server  ServerInfo `json:"server"`

	// AdditionalData carries kind-specific extra payload: the failed
	// authentication request, a library update reason, a subtitle
	// failure cause.
	AdditionalData any `json:"additional_data,omitempty"`
}

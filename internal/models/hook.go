// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package models

import "fmt"

// HookEvent is a canonical event kind. The enumeration is closed: raw host
// signals are normalized into exactly these kinds and nothing else.
type HookEvent string

const (
	EventPlay     HookEvent = "Play"
	EventPause    HookEvent = "Pause"
	EventResume   HookEvent = "Resume"
	EventStop     HookEvent = "Stop"
	EventScrobble HookEvent = "Scrobble" // playback crossed the 90% watched threshold

	EventMarkPlayed   HookEvent = "MarkPlayed"
	EventMarkUnplayed HookEvent = "MarkUnplayed"
	EventRate         HookEvent = "Rate"

	EventItemAdded   HookEvent = "ItemAdded"
	EventItemRemoved HookEvent = "ItemRemoved"
	EventItemUpdated HookEvent = "ItemUpdated"

	EventAuthenticationSucceeded HookEvent = "AuthenticationSucceeded"
	EventAuthenticationFailed    HookEvent = "AuthenticationFailed"

	EventSessionStarted HookEvent = "SessionStarted"
	EventSessionEnded   HookEvent = "SessionEnded"

	EventSubtitleDownloadFailure HookEvent = "SubtitleDownloadFailure"

	EventHasPendingRestartChanged HookEvent = "HasPendingRestartChanged"
)

// AllHookEvents lists every canonical event kind, in declaration order.
// The admin API exposes this list so hook editors never hardcode it.
func AllHookEvents() []HookEvent {
	return []HookEvent{
		EventPlay, EventPause, EventResume, EventStop, EventScrobble,
		EventMarkPlayed, EventMarkUnplayed, EventRate,
		EventItemAdded, EventItemRemoved, EventItemUpdated,
		EventAuthenticationSucceeded, EventAuthenticationFailed,
		EventSessionStarted, EventSessionEnded,
		EventSubtitleDownloadFailure,
		EventHasPendingRestartChanged,
	}
}

// ParseHookEvent validates a kind name received from configuration or the
// admin API.
func ParseHookEvent(s string) (HookEvent, error) {
	for _, e := range AllHookEvents() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown hook event %q", s)
}

// HookFormat selects the wire format a hook is delivered in.
type HookFormat string

const (
	FormatDefault HookFormat = "Default"
	FormatGet     HookFormat = "Get"
	FormatPlex    HookFormat = "Plex"
)

// AllHookFormats lists the supported wire formats.
func AllHookFormats() []HookFormat {
	return []HookFormat{FormatDefault, FormatGet, FormatPlex}
}

// HookConfig is a user-authored delivery rule. It is owned by the hook store;
// the dispatch engine only ever reads it.
type HookConfig struct {
	// ID uniquely identifies the hook. Generated by the store when absent.
	ID string `json:"id" koanf:"id"`

	// URL is the destination endpoint.
	URL string `json:"url" koanf:"url"`

	// UserID optionally restricts the hook to events for one user.
	// Empty matches all users; a non-empty filter never matches a
	// user-less event.
	UserID string `json:"user_id,omitempty" koanf:"user_id"`

	// Format selects the wire format. Unknown values fall back to Default.
	Format HookFormat `json:"format" koanf:"format"`

	// Events is the set of canonical event kinds this hook fires on.
	Events []HookEvent `json:"events" koanf:"events"`
}

// HasEvent reports whether the hook's event set contains kind.
func (h *HookConfig) HasEvent(kind HookEvent) bool {
	for _, e := range h.Events {
		if e == kind {
			return true
		}
	}
	return false
}

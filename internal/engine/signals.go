// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package engine

import "github.com/tomtom215/hookbridge/internal/models"

// Raw signals are the host-shaped callback payloads consumed by the
// normalizer. They mirror what the host delivers, before any canonical
// interpretation.

// PlaybackSignal is the payload of playback start, stop, and progress
// callbacks. PositionTicks and RunTimeTicks are pointers because the host
// omits them for virtual or not-yet-probed media; the scrobble threshold is
// only evaluated when both are present.
type PlaybackSignal struct {
	DeviceID string          `json:"device_id"`
	Item     *models.Item    `json:"item,omitempty"`
	Session  *models.Session `json:"session,omitempty"`

	// Users lists every user attached to the session. A session can have
	// several; playback events fan out one per user.
	Users []models.User `json:"users,omitempty"`

	IsPaused      bool   `json:"is_paused"`
	PositionTicks *int64 `json:"position_ticks,omitempty"`
	RunTimeTicks  *int64 `json:"run_time_ticks,omitempty"`
}

// UserDataSaveReason is the host's reason code on a user-data save.
type UserDataSaveReason string

const (
	SaveReasonTogglePlayed     UserDataSaveReason = "TogglePlayed"
	SaveReasonUpdateUserRating UserDataSaveReason = "UpdateUserRating"
	SaveReasonPlaybackProgress UserDataSaveReason = "PlaybackProgress"
	SaveReasonImport           UserDataSaveReason = "Import"
)

// UserDataSignal is the payload of a user-data-saved callback.
type UserDataSignal struct {
	UserID string             `json:"user_id"`
	Item   *models.Item       `json:"item,omitempty"`
	Reason UserDataSaveReason `json:"reason"`

	// Played is the new played flag; only meaningful for TogglePlayed.
	Played bool `json:"played"`
}

// LibrarySignal is the payload of library item added/removed/updated
// callbacks.
type LibrarySignal struct {
	Item         *models.Item `json:"item,omitempty"`
	UpdateReason string       `json:"update_reason,omitempty"`
}

// SessionSignal is the payload of session started/ended callbacks.
type SessionSignal struct {
	Session *models.Session `json:"session,omitempty"`
}

// AuthRequest is the raw authentication attempt carried on failures. The
// identity of a failed login is not trusted, so it is forwarded verbatim as
// additional data rather than resolved to a user.
type AuthRequest struct {
	Username       string `json:"username,omitempty"`
	DeviceID       string `json:"device_id,omitempty"`
	DeviceName     string `json:"device_name,omitempty"`
	App            string `json:"app,omitempty"`
	AppVersion     string `json:"app_version,omitempty"`
	RemoteEndPoint string `json:"remote_end_point,omitempty"`
}

// AuthSuccessSignal is the payload of a successful authentication callback.
type AuthSuccessSignal struct {
	UserID  string          `json:"user_id"`
	Session *models.Session `json:"session,omitempty"`
}

// AuthFailureSignal is the payload of a failed authentication callback.
type AuthFailureSignal struct {
	Request *AuthRequest `json:"request,omitempty"`
}

// SubtitleFailureSignal is the payload of a subtitle-download-failure
// callback.
type SubtitleFailureSignal struct {
	Item     *models.Item `json:"item,omitempty"`
	Provider string       `json:"provider,omitempty"`
	Cause    string       `json:"cause,omitempty"`
}

// PendingRestartSignal is the payload of a pending-restart-changed callback.
type PendingRestartSignal struct {
	HasPendingRestart bool `json:"has_pending_restart"`
}

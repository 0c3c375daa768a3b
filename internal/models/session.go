// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package models

// User is the host user snapshot attached to user-scoped events.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsAdministrator bool   `json:"is_administrator,omitempty"`
}

// PlayState is the playback position snapshot reported by the host session.
// PositionTicks is a pointer because the host omits it when nothing is
// playing; the scrobble threshold is only evaluated when it is present.
type PlayState struct {
	PositionTicks *int64 `json:"position_ticks,omitempty"`
	IsPaused      bool   `json:"is_paused"`
	IsMuted       bool   `json:"is_muted,omitempty"`
	VolumeLevel   int    `json:"volume_level,omitempty"`
}

// Session is the playback session snapshot carried by an EventInfo.
type Session struct {
	ID                 string     `json:"id"`
	Client             string     `json:"client,omitempty"`
	DeviceID           string     `json:"device_id"`
	DeviceName         string     `json:"device_name,omitempty"`
	RemoteEndPoint     string     `json:"remote_end_point,omitempty"`
	ApplicationVersion string     `json:"application_version,omitempty"`
	UserID             string     `json:"user_id,omitempty"`
	UserName           string     `json:"user_name,omitempty"`
	NowPlaying         *Item      `json:"now_playing,omitempty"`
	PlayState          *PlayState `json:"play_state,omitempty"`
}

// ServerInfo identifies the host server an event originated from.
type ServerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

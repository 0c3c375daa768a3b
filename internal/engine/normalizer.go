// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package engine

import (
	"context"

	"github.com/tomtom215/hookbridge/internal/logging"
	"github.com/tomtom215/hookbridge/internal/metrics"
	"github.com/tomtom215/hookbridge/internal/models"
)

// UserResolver resolves a host user id to a live user. Implemented by the
// Jellyfin REST client; tests substitute a stub.
type UserResolver interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// ServerInfoProvider supplies the host server identity stamped on every
// canonical event.
type ServerInfoProvider interface {
	ServerInfo() models.ServerInfo
}

// EventSink receives canonical events. The dispatch Sender implements it;
// the sink must never return delivery errors to the normalizer.
type EventSink interface {
	Send(ctx context.Context, info *models.EventInfo)
}

// Normalizer converts raw host signals into canonical events. One method per
// raw signal kind; every method is safe for concurrent use.
type Normalizer struct {
	devices   *DeviceTracker
	scrobbled *ScrobbleTracker
	users     UserResolver
	server    ServerInfoProvider
	sink      EventSink
}

// NewNormalizer wires a normalizer with fresh device and scrobble state.
func NewNormalizer(users UserResolver, server ServerInfoProvider, sink EventSink) *Normalizer {
	return &Normalizer{
		devices:   NewDeviceTracker(),
		scrobbled: NewScrobbleTracker(),
		users:     users,
		server:    server,
		sink:      sink,
	}
}

// Devices exposes the device tracker for inspection in tests.
func (n *Normalizer) Devices() *DeviceTracker { return n.devices }

// Scrobbled exposes the scrobble tracker for inspection in tests.
func (n *Normalizer) Scrobbled() *ScrobbleTracker { return n.scrobbled }

// HandlePlaybackStart marks the device Playing and emits Play per user.
func (n *Normalizer) HandlePlaybackStart(ctx context.Context, sig *PlaybackSignal) {
	n.devices.Set(sig.DeviceID, StatePlaying)
	n.playbackEventAll(ctx, models.EventPlay, sig)
}

// HandlePlaybackStopped marks the device Stopped and emits Stop per user.
func (n *Normalizer) HandlePlaybackStopped(ctx context.Context, sig *PlaybackSignal) {
	n.devices.Set(sig.DeviceID, StateStopped)
	n.playbackEventAll(ctx, models.EventStop, sig)
}

// HandlePlaybackProgress applies the pause/resume transition table; when
// neither edge fires, the progress callback only feeds the scrobble
// threshold.
func (n *Normalizer) HandlePlaybackProgress(ctx context.Context, sig *PlaybackSignal) {
	state := n.devices.Get(sig.DeviceID)

	switch {
	case sig.IsPaused && state != StatePaused && state != StateStopped:
		n.devices.Set(sig.DeviceID, StatePaused)
		n.playbackEventAll(ctx, models.EventPause, sig)

	case !sig.IsPaused && state == StatePaused:
		n.devices.Set(sig.DeviceID, StatePlaying)
		n.playbackEventAll(ctx, models.EventResume, sig)

	default:
		n.evaluateScrobble(ctx, sig)
	}
}

// evaluateScrobble fires Scrobble exactly once per item once playback
// crosses the watched threshold. Virtual items and sessions without
// position/runtime never scrobble.
func (n *Normalizer) evaluateScrobble(ctx context.Context, sig *PlaybackSignal) {
	item := sig.Item
	if item == nil || item.Path == "" || item.IsVirtual {
		return
	}
	if sig.PositionTicks == nil || sig.RunTimeTicks == nil || *sig.RunTimeTicks <= 0 {
		return
	}

	watched := float64(*sig.PositionTicks) / float64(*sig.RunTimeTicks) * 100
	if watched < ScrobbleThresholdPercent {
		return
	}
	if !n.scrobbled.MarkOnce(item.ID) {
		return
	}

	logging.Debug().Str("item", item.ID).Float64("watched_pct", watched).Msg("scrobble threshold crossed")
	n.playbackEventAll(ctx, models.EventScrobble, sig)
}

// HandleUserDataSaved maps a user-data save to MarkPlayed/MarkUnplayed/Rate.
// Saves with any other reason produce no event.
func (n *Normalizer) HandleUserDataSaved(ctx context.Context, sig *UserDataSignal) {
	var kind models.HookEvent
	switch sig.Reason {
	case SaveReasonTogglePlayed:
		if sig.Played {
			kind = models.EventMarkPlayed
		} else {
			kind = models.EventMarkUnplayed
		}
	case SaveReasonUpdateUserRating:
		kind = models.EventRate
	default:
		metrics.EventsDropped.WithLabelValues(metrics.DropUnsupportedReason).Inc()
		return
	}

	if sig.Item == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoItem).Inc()
		return
	}
	user := n.resolveUser(ctx, sig.UserID)
	if user == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropUnresolvedUser).Inc()
		return
	}

	n.emit(ctx, &models.EventInfo{
		Event:  kind,
		Item:   sig.Item,
		User:   user,
		Server: n.server.ServerInfo(),
	})
}

// HandleItemAdded emits ItemAdded for physical library items.
func (n *Normalizer) HandleItemAdded(ctx context.Context, sig *LibrarySignal) {
	n.libraryEvent(ctx, models.EventItemAdded, sig)
}

// HandleItemRemoved emits ItemRemoved for physical library items.
func (n *Normalizer) HandleItemRemoved(ctx context.Context, sig *LibrarySignal) {
	n.libraryEvent(ctx, models.EventItemRemoved, sig)
}

// HandleItemUpdated emits ItemUpdated for physical library items.
func (n *Normalizer) HandleItemUpdated(ctx context.Context, sig *LibrarySignal) {
	n.libraryEvent(ctx, models.EventItemUpdated, sig)
}

func (n *Normalizer) libraryEvent(ctx context.Context, kind models.HookEvent, sig *LibrarySignal) {
	if sig.Item == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoItem).Inc()
		return
	}
	if sig.Item.IsVirtual {
		metrics.EventsDropped.WithLabelValues(metrics.DropVirtualItem).Inc()
		return
	}

	// Library events are not user-scoped: no fan-out, no user filter match.
	n.emit(ctx, &models.EventInfo{
		Event:          kind,
		Item:           sig.Item,
		Server:         n.server.ServerInfo(),
		AdditionalData: sig.UpdateReason,
	})
}

// HandleSessionStarted emits SessionStarted for the session's owning user.
func (n *Normalizer) HandleSessionStarted(ctx context.Context, sig *SessionSignal) {
	n.sessionEvent(ctx, models.EventSessionStarted, sig.Session)
}

// HandleSessionEnded synthesizes a Stop for devices that ended their session
// while still playing, clears the device entry, then emits SessionEnded.
func (n *Normalizer) HandleSessionEnded(ctx context.Context, sig *SessionSignal) {
	s := sig.Session
	if s == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoSession).Inc()
		return
	}

	if s.DeviceID != "" {
		if n.devices.Get(s.DeviceID) != StateStopped {
			n.devices.Set(s.DeviceID, StateStopped)
			n.syntheticStop(ctx, s)
		}
		n.devices.Clear(s.DeviceID)
	}

	n.sessionEvent(ctx, models.EventSessionEnded, s)
}

// syntheticStop emits Stop using the session's currently playing item and
// owning user. Sessions idle at teardown (no item) or anonymous sessions
// produce nothing; Stop is a playback event and requires both.
func (n *Normalizer) syntheticStop(ctx context.Context, s *models.Session) {
	if s.NowPlaying == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoItem).Inc()
		return
	}
	user := n.resolveUser(ctx, s.UserID)
	if user == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropUnresolvedUser).Inc()
		return
	}

	logging.Debug().Str("device", s.DeviceID).Msg("synthesizing stop for session that ended mid-playback")
	n.emit(ctx, &models.EventInfo{
		Event:   models.EventStop,
		Item:    s.NowPlaying,
		User:    user,
		Session: s,
		Server:  n.server.ServerInfo(),
	})
}

func (n *Normalizer) sessionEvent(ctx context.Context, kind models.HookEvent, s *models.Session) {
	if s == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoSession).Inc()
		return
	}

	// Anonymous sessions carry no user.
	var user *models.User
	if s.UserID != "" {
		user = n.resolveUser(ctx, s.UserID)
	}

	n.emit(ctx, &models.EventInfo{
		Event:   kind,
		User:    user,
		Session: s,
		Server:  n.server.ServerInfo(),
	})
}

// HandleAuthenticationSucceeded emits AuthenticationSucceeded with the
// resolved user and session.
func (n *Normalizer) HandleAuthenticationSucceeded(ctx context.Context, sig *AuthSuccessSignal) {
	user := n.resolveUser(ctx, sig.UserID)
	if user == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropUnresolvedUser).Inc()
		return
	}

	n.emit(ctx, &models.EventInfo{
		Event:   models.EventAuthenticationSucceeded,
		User:    user,
		Session: sig.Session,
		Server:  n.server.ServerInfo(),
	})
}

// HandleAuthenticationFailed emits AuthenticationFailed carrying the raw
// attempt as additional data. No user is attached: the identity of a failed
// login is not assumed trustworthy.
func (n *Normalizer) HandleAuthenticationFailed(ctx context.Context, sig *AuthFailureSignal) {
	n.emit(ctx, &models.EventInfo{
		Event:          models.EventAuthenticationFailed,
		Server:         n.server.ServerInfo(),
		AdditionalData: sig.Request,
	})
}

// HandleSubtitleDownloadFailure emits SubtitleDownloadFailure with the
// affected item and the failure cause as additional data.
func (n *Normalizer) HandleSubtitleDownloadFailure(ctx context.Context, sig *SubtitleFailureSignal) {
	if sig.Item == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoItem).Inc()
		return
	}

	n.emit(ctx, &models.EventInfo{
		Event:          models.EventSubtitleDownloadFailure,
		Item:           sig.Item,
		Server:         n.server.ServerInfo(),
		AdditionalData: sig.Cause,
	})
}

// HandlePendingRestartChanged emits HasPendingRestartChanged with server
// info only.
func (n *Normalizer) HandlePendingRestartChanged(ctx context.Context, _ *PendingRestartSignal) {
	n.emit(ctx, &models.EventInfo{
		Event:  models.EventHasPendingRestartChanged,
		Server: n.server.ServerInfo(),
	})
}

// playbackEventAll fans a playback event out to every user attached to the
// session. Emission is skipped entirely when the user list is empty or the
// item is missing.
func (n *Normalizer) playbackEventAll(ctx context.Context, kind models.HookEvent, sig *PlaybackSignal) {
	if len(sig.Users) == 0 {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoUser).Inc()
		return
	}
	if sig.Item == nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropNoItem).Inc()
		return
	}

	for i := range sig.Users {
		n.emit(ctx, &models.EventInfo{
			Event:   kind,
			Item:    sig.Item,
			User:    &sig.Users[i],
			Session: sig.Session,
			Server:  n.server.ServerInfo(),
		})
	}
}

// resolveUser looks up a user by id, returning nil when the id is empty or
// the host no longer knows the user.
func (n *Normalizer) resolveUser(ctx context.Context, id string) *models.User {
	if id == "" {
		return nil
	}
	user, err := n.users.UserByID(ctx, id)
	if err != nil {
		logging.Debug().Err(err).Str("user_id", id).Msg("user resolution failed")
		return nil
	}
	return user
}

func (n *Normalizer) emit(ctx context.Context, info *models.EventInfo) {
	metrics.EventsNormalized.WithLabelValues(string(info.Event)).Inc()
	n.sink.Send(ctx, info)
}

// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package jellyfin

import (
	"github.com/tomtom215/hookbridge/internal/bus"
	"github.com/tomtom215/hookbridge/internal/engine"
)

// Signal is a raw signal paired with the bus topic it belongs on.
type Signal struct {
	Topic   string
	Payload any
}

// SessionDiffer turns consecutive session snapshots into raw signals by
// comparing each snapshot against the previous one:
//
//   - a session id appearing            -> session started
//   - a session id disappearing        -> session ended
//   - playback appearing on a session  -> playback start
//   - playback persisting              -> playback progress
//   - playback disappearing or the
//     item changing                     -> playback stopped (then start)
//
// The differ holds the last snapshot only; it is not safe for concurrent
// use and is owned by the listener's read loop.
type SessionDiffer struct {
	prev map[string]sessionDTO
}

// NewSessionDiffer starts with an empty snapshot: every session in the first
// snapshot is reported as started.
func NewSessionDiffer() *SessionDiffer {
	return &SessionDiffer{prev: make(map[string]sessionDTO)}
}

// Apply diffs snapshot against the previous one and returns the raw signals,
// stops before starts so an item switch tears down before building up.
func (d *SessionDiffer) Apply(snapshot []sessionDTO) []Signal {
	current := make(map[string]sessionDTO, len(snapshot))
	for _, s := range snapshot {
		current[s.ID] = s
	}

	var signals []Signal

	// Sessions that vanished. The engine synthesizes the final Stop from
	// its own device state, so only the session end is reported here.
	for id, old := range d.prev {
		if _, ok := current[id]; !ok {
			signals = append(signals, Signal{
				Topic:   bus.TopicSessionEnded,
				Payload: engine.SessionSignal{Session: old.toModel()},
			})
		}
	}

	for _, s := range snapshot {
		old, known := d.prev[s.ID]
		if !known {
			signals = append(signals, Signal{
				Topic:   bus.TopicSessionStarted,
				Payload: engine.SessionSignal{Session: s.toModel()},
			})
		}

		switch {
		case s.NowPlayingItem == nil && known && old.NowPlayingItem != nil:
			signals = append(signals, playbackSignal(bus.TopicPlaybackStopped, old))

		case s.NowPlayingItem != nil && (!known || old.NowPlayingItem == nil):
			signals = append(signals, playbackSignal(bus.TopicPlaybackStart, s))

		case s.NowPlayingItem != nil && old.NowPlayingItem != nil:
			if s.NowPlayingItem.ID != old.NowPlayingItem.ID {
				signals = append(signals,
					playbackSignal(bus.TopicPlaybackStopped, old),
					playbackSignal(bus.TopicPlaybackStart, s))
			} else {
				signals = append(signals, playbackSignal(bus.TopicPlaybackProgress, s))
			}
		}
	}

	d.prev = current
	return signals
}

// UserDataChange is a played/rating edge derived from consecutive user-data
// notifications for one user and item.
type UserDataChange struct {
	UserID string
	ItemID string
	Reason engine.UserDataSaveReason
	Played bool
}

type userDataState struct {
	played bool
	rating *float64
}

// UserDataDiffer turns the host's user-data notifications into edges. The
// socket reports every save, including routine playback-position updates; an
// edge only exists against a previously observed state, so the first
// notification for a user+item pair is the silent baseline.
type UserDataDiffer struct {
	prev map[string]userDataState
}

// NewUserDataDiffer returns a differ with no baselines.
func NewUserDataDiffer() *UserDataDiffer {
	return &UserDataDiffer{prev: make(map[string]userDataState)}
}

// Apply diffs each entry against the last observed state and returns the
// played toggles and rating changes. Like SessionDiffer, it is owned by the
// listener's read loop and not safe for concurrent use.
func (d *UserDataDiffer) Apply(change *userDataChangedDTO) []UserDataChange {
	var out []UserDataChange
	for _, ud := range change.UserDataList {
		key := change.UserID + "\x00" + ud.ItemID
		old, known := d.prev[key]
		d.prev[key] = userDataState{played: ud.Played, rating: ud.Rating}
		if !known {
			continue
		}

		if ud.Played != old.played {
			out = append(out, UserDataChange{
				UserID: change.UserID,
				ItemID: ud.ItemID,
				Reason: engine.SaveReasonTogglePlayed,
				Played: ud.Played,
			})
		}
		if ratingChanged(old.rating, ud.Rating) {
			out = append(out, UserDataChange{
				UserID: change.UserID,
				ItemID: ud.ItemID,
				Reason: engine.SaveReasonUpdateUserRating,
				Played: ud.Played,
			})
		}
	}
	return out
}

func ratingChanged(old, current *float64) bool {
	if old == nil || current == nil {
		return old != current
	}
	return *old != *current
}

func playbackSignal(topic string, s sessionDTO) Signal {
	sig := engine.PlaybackSignal{
		DeviceID: s.DeviceID,
		Item:     s.NowPlayingItem.toModel(),
		Session:  s.toModel(),
		Users:    s.users(),
	}
	if s.PlayState != nil {
		sig.IsPaused = s.PlayState.IsPaused
		sig.PositionTicks = s.PlayState.PositionTicks
	}
	sig.RunTimeTicks = s.NowPlayingItem.RunTimeTicks
	return Signal{Topic: topic, Payload: sig}
}

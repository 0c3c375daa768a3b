// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package jellyfin

import (
	"testing"

	"github.com/tomtom215/hookbridge/internal/bus"
	"github.com/tomtom215/hookbridge/internal/engine"
)

func playingSession(id, itemID string, paused bool) sessionDTO {
	pos := int64(1000)
	return sessionDTO{
		ID:       id,
		DeviceID: "dev-" + id,
		UserID:   "u1",
		UserName: "alice",
		NowPlayingItem: &itemDTO{
			ID:   itemID,
			Name: "Item " + itemID,
			Type: "Movie",
			Path: "/media/" + itemID + ".mkv",
		},
		PlayState: &playStateDTO{PositionTicks: &pos, IsPaused: paused},
	}
}

func idleSession(id string) sessionDTO {
	return sessionDTO{ID: id, DeviceID: "dev-" + id, UserID: "u1", UserName: "alice"}
}

func topics(signals []Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Topic
	}
	return out
}

func assertTopics(t *testing.T, signals []Signal, want ...string) {
	t.Helper()
	got := topics(signals)
	if len(got) != len(want) {
		t.Fatalf("signals = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("signals = %v, want %v", got, want)
		}
	}
}

func TestDifferFirstSnapshotStartsEverything(t *testing.T) {
	t.Parallel()

	d := NewSessionDiffer()
	signals := d.Apply([]sessionDTO{playingSession("s1", "i1", false)})
	assertTopics(t, signals, bus.TopicSessionStarted, bus.TopicPlaybackStart)

	sig, ok := signals[1].Payload.(engine.PlaybackSignal)
	if !ok {
		t.Fatalf("payload type = %T, want PlaybackSignal", signals[1].Payload)
	}
	if sig.DeviceID != "dev-s1" || sig.Item.ID != "i1" {
		t.Errorf("signal = %+v", sig)
	}
	if len(sig.Users) != 1 || sig.Users[0].ID != "u1" {
		t.Errorf("users = %+v, want the session owner", sig.Users)
	}
}

func TestDifferSteadyPlaybackEmitsProgress(t *testing.T) {
	t.Parallel()

	d := NewSessionDiffer()
	d.Apply([]sessionDTO{playingSession("s1", "i1", false)})

	signals := d.Apply([]sessionDTO{playingSession("s1", "i1", true)})
	assertTopics(t, signals, bus.TopicPlaybackProgress)

	sig := signals[0].Payload.(engine.PlaybackSignal)
	if !sig.IsPaused {
		t.Error("progress signal must carry the paused flag")
	}
}

func TestDifferPlaybackEndingEmitsStop(t *testing.T) {
	t.Parallel()

	d := NewSessionDiffer()
	d.Apply([]sessionDTO{playingSession("s1", "i1", false)})

	signals := d.Apply([]sessionDTO{idleSession("s1")})
	assertTopics(t, signals, bus.TopicPlaybackStopped)

	sig := signals[0].Payload.(engine.PlaybackSignal)
	if sig.Item.ID != "i1" {
		t.Errorf("stop signal item = %s, want the previously playing item", sig.Item.ID)
	}
}

func TestDifferItemSwitchStopsThenStarts(t *testing.T) {
	t.Parallel()

	d := NewSessionDiffer()
	d.Apply([]sessionDTO{playingSession("s1", "i1", false)})

	signals := d.Apply([]sessionDTO{playingSession("s1", "i2", false)})
	assertTopics(t, signals, bus.TopicPlaybackStopped, bus.TopicPlaybackStart)

	if stop := signals[0].Payload.(engine.PlaybackSignal); stop.Item.ID != "i1" {
		t.Errorf("stop item = %s, want i1", stop.Item.ID)
	}
	if start := signals[1].Payload.(engine.PlaybackSignal); start.Item.ID != "i2" {
		t.Errorf("start item = %s, want i2", start.Item.ID)
	}
}

func TestDifferVanishedSessionEndsWithoutPlaybackStop(t *testing.T) {
	t.Parallel()

	d := NewSessionDiffer()
	d.Apply([]sessionDTO{playingSession("s1", "i1", false)})

	// The engine owns the synthetic Stop on session end; the differ must
	// not duplicate it.
	signals := d.Apply(nil)
	assertTopics(t, signals, bus.TopicSessionEnded)

	sig := signals[0].Payload.(engine.SessionSignal)
	if sig.Session.NowPlaying == nil || sig.Session.NowPlaying.ID != "i1" {
		t.Error("session end must carry the last known session snapshot")
	}
}

func TestDifferAdditionalUsersFanIntoSignal(t *testing.T) {
	t.Parallel()

	s := playingSession("s1", "i1", false)
	s.AdditionalUsers = []sessionUser{{UserID: "u2", UserName: "bob"}}

	d := NewSessionDiffer()
	signals := d.Apply([]sessionDTO{s})

	sig := signals[1].Payload.(engine.PlaybackSignal)
	if len(sig.Users) != 2 || sig.Users[1].ID != "u2" {
		t.Errorf("users = %+v, want owner plus additional user", sig.Users)
	}
}

func TestDifferUnchangedIdleSessionIsSilent(t *testing.T) {
	t.Parallel()

	d := NewSessionDiffer()
	d.Apply([]sessionDTO{idleSession("s1")})

	if signals := d.Apply([]sessionDTO{idleSession("s1")}); len(signals) != 0 {
		t.Errorf("idle snapshot produced %v, want nothing", topics(signals))
	}
}

func userData(userID, itemID string, played bool, rating *float64) *userDataChangedDTO {
	return &userDataChangedDTO{
		UserID:       userID,
		UserDataList: []userItemDataDTO{{ItemID: itemID, Played: played, Rating: rating}},
	}
}

func TestUserDataDifferFirstNotificationIsBaseline(t *testing.T) {
	t.Parallel()

	d := NewUserDataDiffer()
	if changes := d.Apply(userData("u1", "i1", true, nil)); len(changes) != 0 {
		t.Errorf("first notification produced %v, want nothing", changes)
	}
}

func TestUserDataDifferPlayedToggles(t *testing.T) {
	t.Parallel()

	d := NewUserDataDiffer()
	d.Apply(userData("u1", "i1", false, nil))

	changes := d.Apply(userData("u1", "i1", true, nil))
	if len(changes) != 1 || changes[0].Reason != engine.SaveReasonTogglePlayed || !changes[0].Played {
		t.Fatalf("changes = %+v, want one played toggle", changes)
	}

	changes = d.Apply(userData("u1", "i1", false, nil))
	if len(changes) != 1 || changes[0].Reason != engine.SaveReasonTogglePlayed || changes[0].Played {
		t.Fatalf("changes = %+v, want one unplayed toggle", changes)
	}
}

func TestUserDataDifferRatingChange(t *testing.T) {
	t.Parallel()

	rating := func(v float64) *float64 { return &v }

	d := NewUserDataDiffer()
	d.Apply(userData("u1", "i1", true, nil))

	changes := d.Apply(userData("u1", "i1", true, rating(8)))
	if len(changes) != 1 || changes[0].Reason != engine.SaveReasonUpdateUserRating {
		t.Fatalf("changes = %+v, want one rating change", changes)
	}

	// Same rating again is a routine save, not an edge.
	if changes := d.Apply(userData("u1", "i1", true, rating(8))); len(changes) != 0 {
		t.Errorf("unchanged rating produced %v, want nothing", changes)
	}
}

func TestUserDataDifferProgressSavesAreSilent(t *testing.T) {
	t.Parallel()

	d := NewUserDataDiffer()
	d.Apply(userData("u1", "i1", false, nil))

	// Position-only saves repeat the same played/rating state.
	for range 3 {
		if changes := d.Apply(userData("u1", "i1", false, nil)); len(changes) != 0 {
			t.Fatalf("progress save produced %v, want nothing", changes)
		}
	}
}

func TestUserDataDifferScopesStatePerUser(t *testing.T) {
	t.Parallel()

	d := NewUserDataDiffer()
	d.Apply(userData("u1", "i1", true, nil))

	// A different user's first notification for the same item is still a
	// baseline, not a toggle against u1's state.
	if changes := d.Apply(userData("u2", "i1", false, nil)); len(changes) != 0 {
		t.Errorf("other user's baseline produced %v, want nothing", changes)
	}
}

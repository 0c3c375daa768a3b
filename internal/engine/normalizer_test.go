// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/hookbridge/internal/models"
)

type captureSink struct {
	mu     sync.Mutex
	events []*models.EventInfo
}

func (s *captureSink) Send(_ context.Context, info *models.EventInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, info)
}

func (s *captureSink) kinds() []models.HookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]models.HookEvent, len(s.events))
	for i, e := range s.events {
		kinds[i] = e.Event
	}
	return kinds
}

type stubResolver struct {
	users map[string]*models.User
}

func (r *stubResolver) UserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

type stubServer struct{}

func (stubServer) ServerInfo() models.ServerInfo {
	return models.ServerInfo{ID: "srv-id", Name: "srv", Version: "10.9.0"}
}

func newTestNormalizer(users map[string]*models.User) (*Normalizer, *captureSink) {
	sink := &captureSink{}
	n := NewNormalizer(&stubResolver{users: users}, stubServer{}, sink)
	return n, sink
}

func ticks(v int64) *int64 { return &v }

func testItem() *models.Item {
	return &models.Item{
		ID:        "item1",
		Name:      "Some Movie",
		Kind:      models.KindMovie,
		MediaType: "Video",
		Path:      "/media/movie.mkv",
	}
}

func alice() models.User { return models.User{ID: "u1", Name: "alice"} }

func TestPlaybackLifecycleEmitsEdgeEvents(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()
	sig := func(paused bool) *PlaybackSignal {
		return &PlaybackSignal{
			DeviceID: "tv",
			Item:     testItem(),
			Users:    []models.User{alice()},
			IsPaused: paused,
		}
	}

	n.HandlePlaybackStart(ctx, sig(false))
	n.HandlePlaybackProgress(ctx, sig(true))
	n.HandlePlaybackProgress(ctx, sig(false))
	n.HandlePlaybackStopped(ctx, sig(false))

	want := []models.HookEvent{models.EventPlay, models.EventPause, models.EventResume, models.EventStop}
	got := sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("got events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if state := n.Devices().Get("tv"); state != StateStopped {
		t.Errorf("final device state = %v, want Stopped", state)
	}
}

func TestProgressRepeatedPauseEmitsSingleEdge(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()
	paused := &PlaybackSignal{DeviceID: "tv", Item: testItem(), Users: []models.User{alice()}, IsPaused: true}

	n.HandlePlaybackProgress(ctx, paused)
	n.HandlePlaybackProgress(ctx, paused)
	n.HandlePlaybackProgress(ctx, paused)

	got := sink.kinds()
	if len(got) != 1 || got[0] != models.EventPause {
		t.Errorf("got %v, want exactly one Pause", got)
	}
}

func TestProgressWhileStoppedEmitsNoPause(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()

	n.Devices().Set("tv", StateStopped)
	n.HandlePlaybackProgress(ctx, &PlaybackSignal{
		DeviceID: "tv", Item: testItem(), Users: []models.User{alice()}, IsPaused: true,
	})

	if got := sink.kinds(); len(got) != 0 {
		t.Errorf("got %v, want no events for paused progress on a stopped device", got)
	}
}

func TestScrobbleFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()
	sig := &PlaybackSignal{
		DeviceID:      "tv",
		Item:          testItem(),
		Users:         []models.User{alice()},
		PositionTicks: ticks(95),
		RunTimeTicks:  ticks(100),
	}

	n.Devices().Set("tv", StatePlaying)
	n.HandlePlaybackProgress(ctx, sig)
	n.HandlePlaybackProgress(ctx, sig)
	n.HandlePlaybackProgress(ctx, sig)

	got := sink.kinds()
	if len(got) != 1 || got[0] != models.EventScrobble {
		t.Errorf("got %v, want exactly one Scrobble", got)
	}
}

func TestScrobbleRequiresThresholdAndPhysicalMedia(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*PlaybackSignal)
	}{
		{"below threshold", func(s *PlaybackSignal) { s.PositionTicks = ticks(89) }},
		{"virtual item", func(s *PlaybackSignal) { s.Item.IsVirtual = true }},
		{"no path", func(s *PlaybackSignal) { s.Item.Path = "" }},
		{"no position", func(s *PlaybackSignal) { s.PositionTicks = nil }},
		{"no runtime", func(s *PlaybackSignal) { s.RunTimeTicks = nil }},
		{"zero runtime", func(s *PlaybackSignal) { s.RunTimeTicks = ticks(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n, sink := newTestNormalizer(nil)
			sig := &PlaybackSignal{
				DeviceID:      "tv",
				Item:          testItem(),
				Users:         []models.User{alice()},
				PositionTicks: ticks(95),
				RunTimeTicks:  ticks(100),
			}
			tt.mutate(sig)

			n.Devices().Set("tv", StatePlaying)
			n.HandlePlaybackProgress(context.Background(), sig)

			if got := sink.kinds(); len(got) != 0 {
				t.Errorf("got %v, want no scrobble", got)
			}
		})
	}
}

func TestScrobbleAtExactThreshold(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	n.Devices().Set("tv", StatePlaying)
	n.HandlePlaybackProgress(context.Background(), &PlaybackSignal{
		DeviceID:      "tv",
		Item:          testItem(),
		Users:         []models.User{alice()},
		PositionTicks: ticks(90),
		RunTimeTicks:  ticks(100),
	})

	got := sink.kinds()
	if len(got) != 1 || got[0] != models.EventScrobble {
		t.Errorf("got %v, want Scrobble at exactly 90%%", got)
	}
}

func TestPlaybackFansOutPerUser(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	n.HandlePlaybackStart(context.Background(), &PlaybackSignal{
		DeviceID: "tv",
		Item:     testItem(),
		Users:    []models.User{{ID: "u1", Name: "alice"}, {ID: "u2", Name: "bob"}},
	})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 2 {
		t.Fatalf("got %d events, want one per user", len(sink.events))
	}
	if sink.events[0].User.Name != "alice" || sink.events[1].User.Name != "bob" {
		t.Errorf("unexpected fan-out users: %v, %v", sink.events[0].User, sink.events[1].User)
	}
}

func TestPlaybackDroppedWithoutUsersOrItem(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()

	n.HandlePlaybackStart(ctx, &PlaybackSignal{DeviceID: "tv", Item: testItem()})
	n.HandlePlaybackStart(ctx, &PlaybackSignal{DeviceID: "tv", Users: []models.User{alice()}})

	if got := sink.kinds(); len(got) != 0 {
		t.Errorf("got %v, want emissions dropped", got)
	}
}

func TestUserDataSavedMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sig  UserDataSignal
		want []models.HookEvent
	}{
		{
			"toggle played true",
			UserDataSignal{UserID: "u1", Reason: SaveReasonTogglePlayed, Played: true},
			[]models.HookEvent{models.EventMarkPlayed},
		},
		{
			"toggle played false",
			UserDataSignal{UserID: "u1", Reason: SaveReasonTogglePlayed, Played: false},
			[]models.HookEvent{models.EventMarkUnplayed},
		},
		{
			"rating update",
			UserDataSignal{UserID: "u1", Reason: SaveReasonUpdateUserRating},
			[]models.HookEvent{models.EventRate},
		},
		{
			"progress save ignored",
			UserDataSignal{UserID: "u1", Reason: SaveReasonPlaybackProgress},
			nil,
		},
		{
			"unknown user dropped",
			UserDataSignal{UserID: "ghost", Reason: SaveReasonTogglePlayed, Played: true},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n, sink := newTestNormalizer(map[string]*models.User{"u1": {ID: "u1", Name: "alice"}})
			sig := tt.sig
			sig.Item = testItem()
			n.HandleUserDataSaved(context.Background(), &sig)

			got := sink.kinds()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("event[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUserDataSavedRequiresItem(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(map[string]*models.User{"u1": {ID: "u1"}})
	n.HandleUserDataSaved(context.Background(), &UserDataSignal{
		UserID: "u1", Reason: SaveReasonTogglePlayed, Played: true,
	})

	if got := sink.kinds(); len(got) != 0 {
		t.Errorf("got %v, want drop without item", got)
	}
}

func TestLibraryEventsSkipVirtualAndNilItems(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()

	n.HandleItemAdded(ctx, &LibrarySignal{})
	virtual := testItem()
	virtual.IsVirtual = true
	n.HandleItemAdded(ctx, &LibrarySignal{Item: virtual})

	if got := sink.kinds(); len(got) != 0 {
		t.Fatalf("got %v, want drops", got)
	}

	n.HandleItemAdded(ctx, &LibrarySignal{Item: testItem(), UpdateReason: "MetadataImport"})
	n.HandleItemRemoved(ctx, &LibrarySignal{Item: testItem()})
	n.HandleItemUpdated(ctx, &LibrarySignal{Item: testItem()})

	want := []models.HookEvent{models.EventItemAdded, models.EventItemRemoved, models.EventItemUpdated}
	got := sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.events[0].User != nil {
		t.Error("library events must not carry a user")
	}
	if sink.events[0].AdditionalData != "MetadataImport" {
		t.Errorf("AdditionalData = %v, want update reason", sink.events[0].AdditionalData)
	}
}

func TestSessionEndedSynthesizesStop(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(map[string]*models.User{"u1": {ID: "u1", Name: "alice"}})
	ctx := context.Background()

	n.Devices().Set("tv", StatePlaying)
	n.HandleSessionEnded(ctx, &SessionSignal{Session: &models.Session{
		ID:         "s1",
		DeviceID:   "tv",
		UserID:     "u1",
		NowPlaying: testItem(),
	}})

	want := []models.HookEvent{models.EventStop, models.EventSessionEnded}
	got := sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Device entry is removed on session end.
	if state := n.Devices().Get("tv"); state != StateUnknown {
		t.Errorf("device state after session end = %v, want Unknown", state)
	}
}

func TestSessionEndedAlreadyStoppedEmitsOnlySessionEnded(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(map[string]*models.User{"u1": {ID: "u1"}})
	n.Devices().Set("tv", StateStopped)
	n.HandleSessionEnded(context.Background(), &SessionSignal{Session: &models.Session{
		ID:         "s1",
		DeviceID:   "tv",
		UserID:     "u1",
		NowPlaying: testItem(),
	}})

	got := sink.kinds()
	if len(got) != 1 || got[0] != models.EventSessionEnded {
		t.Errorf("got %v, want only SessionEnded", got)
	}
}

func TestSessionEndedIdleSessionSkipsSyntheticStop(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(map[string]*models.User{"u1": {ID: "u1"}})
	n.Devices().Set("tv", StatePlaying)
	n.HandleSessionEnded(context.Background(), &SessionSignal{Session: &models.Session{
		ID:       "s1",
		DeviceID: "tv",
		UserID:   "u1",
	}})

	got := sink.kinds()
	if len(got) != 1 || got[0] != models.EventSessionEnded {
		t.Errorf("got %v, want only SessionEnded for idle session", got)
	}
}

func TestSessionStartedAnonymousCarriesNoUser(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	n.HandleSessionStarted(context.Background(), &SessionSignal{Session: &models.Session{ID: "s1", DeviceID: "tv"}})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	if sink.events[0].Event != models.EventSessionStarted {
		t.Errorf("event = %v, want SessionStarted", sink.events[0].Event)
	}
	if sink.events[0].User != nil {
		t.Error("anonymous session must not carry a user")
	}
}

func TestAuthenticationSucceededRequiresResolvableUser(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(map[string]*models.User{"u1": {ID: "u1", Name: "alice"}})
	ctx := context.Background()

	n.HandleAuthenticationSucceeded(ctx, &AuthSuccessSignal{UserID: "ghost"})
	if got := sink.kinds(); len(got) != 0 {
		t.Fatalf("got %v, want drop for unresolvable user", got)
	}

	n.HandleAuthenticationSucceeded(ctx, &AuthSuccessSignal{
		UserID:  "u1",
		Session: &models.Session{ID: "s1", DeviceID: "tv"},
	})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 || sink.events[0].User == nil || sink.events[0].User.Name != "alice" {
		t.Fatalf("expected AuthenticationSucceeded with resolved user, got %+v", sink.events)
	}
}

func TestAuthenticationFailedCarriesRequestNotUser(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	req := &AuthRequest{Username: "mallory", RemoteEndPoint: "203.0.113.7"}
	n.HandleAuthenticationFailed(context.Background(), &AuthFailureSignal{Request: req})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Event != models.EventAuthenticationFailed {
		t.Errorf("event = %v", ev.Event)
	}
	if ev.User != nil {
		t.Error("failed authentication must not attach a user")
	}
	if ev.AdditionalData != req {
		t.Error("expected raw auth request as additional data")
	}
}

func TestSubtitleDownloadFailure(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	ctx := context.Background()

	n.HandleSubtitleDownloadFailure(ctx, &SubtitleFailureSignal{Cause: "provider timeout"})
	if got := sink.kinds(); len(got) != 0 {
		t.Fatalf("got %v, want drop without item", got)
	}

	n.HandleSubtitleDownloadFailure(ctx, &SubtitleFailureSignal{Item: testItem(), Cause: "provider timeout"})
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 || sink.events[0].AdditionalData != "provider timeout" {
		t.Fatalf("expected SubtitleDownloadFailure with cause, got %+v", sink.events)
	}
}

func TestPendingRestartChangedCarriesServerOnly(t *testing.T) {
	t.Parallel()

	n, sink := newTestNormalizer(nil)
	n.HandlePendingRestartChanged(context.Background(), &PendingRestartSignal{HasPendingRestart: true})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Event != models.EventHasPendingRestartChanged || ev.User != nil || ev.Item != nil {
		t.Errorf("unexpected event shape: %+v", ev)
	}
	if ev.Server.Name != "srv" {
		t.Errorf("server info missing: %+v", ev.Server)
	}
}

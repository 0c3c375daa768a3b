// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import (
	"testing"

	"github.com/tomtom215/hookbridge/internal/models"
)

func TestMatchByEventSet(t *testing.T) {
	t.Parallel()

	hooks := []models.HookConfig{
		{ID: "a", URL: "http://a.example/", Events: []models.HookEvent{models.EventPlay, models.EventStop}},
		{ID: "b", URL: "http://b.example/", Events: []models.HookEvent{models.EventScrobble}},
		{ID: "c", URL: "http://c.example/", Events: []models.HookEvent{models.EventPlay}},
	}

	matched := Match(hooks, &models.EventInfo{Event: models.EventPlay})
	if len(matched) != 2 {
		t.Fatalf("matched %d hooks, want 2", len(matched))
	}
	if matched[0].ID != "a" || matched[1].ID != "c" {
		t.Errorf("matched order = %s, %s; want a, c", matched[0].ID, matched[1].ID)
	}
}

func TestMatchUserFilter(t *testing.T) {
	t.Parallel()

	hooks := []models.HookConfig{
		{ID: "any", Events: []models.HookEvent{models.EventPlay}},
		{ID: "alice-only", UserID: "u-alice", Events: []models.HookEvent{models.EventPlay}},
	}

	tests := []struct {
		name string
		user *models.User
		want []string
	}{
		{"matching user", &models.User{ID: "u-alice"}, []string{"any", "alice-only"}},
		{"other user", &models.User{ID: "u-bob"}, []string{"any"}},
		{"no user", nil, []string{"any"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			matched := Match(hooks, &models.EventInfo{Event: models.EventPlay, User: tt.user})
			if len(matched) != len(tt.want) {
				t.Fatalf("matched %d hooks, want %d", len(matched), len(tt.want))
			}
			for i, id := range tt.want {
				if matched[i].ID != id {
					t.Errorf("matched[%d] = %s, want %s", i, matched[i].ID, id)
				}
			}
		})
	}
}

func TestMatchNoHooks(t *testing.T) {
	t.Parallel()

	if got := Match(nil, &models.EventInfo{Event: models.EventPlay}); len(got) != 0 {
		t.Errorf("Match on empty config = %d hooks, want 0", len(got))
	}
}

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/hookbridge/internal/engine"
	"github.com/tomtom215/hookbridge/internal/models"
)

func TestDebugRaw(t *testing.T) {
	sink := newCaptureSink()
	b := startBus(t, sink)

	sub, err := b.pubsub.Subscribe(context.Background(), TopicPlaybackProgress)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for msg := range sub {
			t.Logf("raw progress payload: %s", msg.Payload)
			msg.Ack()
		}
	}()

	item := &models.Item{ID: "i1", Name: "Pilot", Kind: models.KindEpisode, Path: "/m/e.mkv"}
	session := &models.Session{ID: "s1", DeviceID: "tv"}
	users := []models.User{{ID: "u1", Name: "alice"}}

	if err := b.Publish(TopicPlaybackStart, engine.PlaybackSignal{
		DeviceID: "tv", Item: item, Session: session, Users: users,
	}); err != nil {
		t.Fatalf("Publish start: %v", err)
	}
	sink.wait(t, 1)

	for _, isPaused := range []bool{true, false} {
		if err := b.Publish(TopicPlaybackProgress, engine.PlaybackSignal{
			DeviceID: "tv", Item: item, Session: session, Users: users, IsPaused: isPaused,
		}); err != nil {
			t.Fatalf("Publish progress: %v", err)
		}
	}

	time.Sleep(2 * time.Second)
	sink.mu.Lock()
	for i, e := range sink.events {
		t.Logf("event[%d] = %s", i, e.Event)
	}
	sink.mu.Unlock()
}

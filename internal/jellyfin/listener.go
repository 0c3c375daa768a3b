// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package jellyfin

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/hookbridge/internal/bus"
	"github.com/tomtom215/hookbridge/internal/config"
	"github.com/tomtom215/hookbridge/internal/engine"
	"github.com/tomtom215/hookbridge/internal/logging"
	"github.com/tomtom215/hookbridge/internal/metrics"
	"github.com/tomtom215/hookbridge/internal/models"
)

// Publisher is where the listener puts raw signals. Implemented by bus.Bus.
type Publisher interface {
	Publish(topic string, payload any) error

	// Running returns a channel that closes once the publisher's consumers
	// are subscribed. Signals published before that would be dropped.
	Running() <-chan struct{}
}

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Listener holds the websocket to Jellyfin and translates its notifications
// into raw signals. It implements suture.Service: Serve reconnects with
// exponential backoff until the context is cancelled.
type Listener struct {
	client   *Client
	cfg      config.JellyfinConfig
	pub      Publisher
	differ   *SessionDiffer
	userData *UserDataDiffer
}

// NewListener builds a listener. The differs survive reconnects so sessions
// that ended during an outage are still reported on the first snapshot after.
func NewListener(client *Client, cfg config.JellyfinConfig, pub Publisher) *Listener {
	return &Listener{
		client:   client,
		cfg:      cfg,
		pub:      pub,
		differ:   NewSessionDiffer(),
		userData: NewUserDataDiffer(),
	}
}

// Serve connects and processes messages until ctx is cancelled. Connection
// failures back off 1s doubling up to the configured maximum; a successful
// connection resets the backoff.
func (l *Listener) Serve(ctx context.Context) error {
	// The listener and the bus router start concurrently under the same
	// supervisor; connecting before the router has subscribed would lose
	// the signals of sessions already active at startup.
	select {
	case <-l.pub.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	delay := time.Second
	for {
		err := l.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		metrics.HostReconnects.Inc()
		logging.Warn().Err(err).Dur("retry_in", delay).Msg("Jellyfin connection lost, reconnecting")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if delay > l.cfg.ReconnectMaxDelay {
			delay = l.cfg.ReconnectMaxDelay
		}
	}
}

// String names the listener in supervisor logs.
func (l *Listener) String() string { return "jellyfin-listener" }

func (l *Listener) runConnection(ctx context.Context) error {
	// The server identity is stamped on every event, so it must be known
	// before the first signal flows.
	if err := l.client.RefreshSystemInfo(ctx); err != nil {
		return err
	}

	wsURL, err := l.client.WebSocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  l.cfg.HandshakeTimeout,
		EnableCompression: true,
	}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	logging.Info().Str("server", l.client.ServerInfo().Name).Msg("Connected to Jellyfin")

	if err := l.subscribe(conn); err != nil {
		return fmt.Errorf("subscription failed: %w", err)
	}

	// Close the connection when ctx ends so the blocked read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	go l.pingLoop(ctx, conn, done)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		l.handleMessage(ctx, conn, data)
	}
}

// subscribe requests session snapshots at the configured interval plus
// activity log entries for authentication events.
func (l *Listener) subscribe(conn *websocket.Conn) error {
	sessions := wsOutMessage{
		MessageType: "SessionsStart",
		Data:        fmt.Sprintf("0,%d", l.cfg.SessionUpdateMs),
	}
	if err := conn.WriteJSON(sessions); err != nil {
		return err
	}
	activity := wsOutMessage{
		MessageType: "ActivityLogEntryStart",
		Data:        "0,1000",
	}
	return conn.WriteJSON(activity)
}

func (l *Listener) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(wsOutMessage{MessageType: "KeepAlive"}); err != nil {
				return
			}
		}
	}
}

func (l *Listener) handleMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.Warn().Err(err).Msg("Failed to parse websocket message")
		return
	}
	metrics.HostMessages.WithLabelValues(msg.MessageType).Inc()

	switch msg.MessageType {
	case "Sessions":
		var sessions []sessionDTO
		if err := json.Unmarshal(msg.Data, &sessions); err != nil {
			logging.Warn().Err(err).Msg("Failed to parse sessions snapshot")
			return
		}
		signals := l.differ.Apply(sessions)
		for i := range signals {
			if ps, ok := signals[i].Payload.(engine.PlaybackSignal); ok {
				l.enrichEpisode(ctx, ps.Item)
			}
		}
		l.publishAll(signals)

	case "LibraryChanged":
		var change libraryChangedDTO
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			logging.Warn().Err(err).Msg("Failed to parse library change")
			return
		}
		l.publishLibraryChange(ctx, &change)

	case "UserDataChanged":
		var change userDataChangedDTO
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			logging.Warn().Err(err).Msg("Failed to parse user data change")
			return
		}
		l.publishUserDataChanges(ctx, &change)

	case "ActivityLogEntry":
		l.publishActivityEntries(msg.Data)

	case "RestartRequired":
		l.publish(Signal{
			Topic:   bus.TopicPendingRestart,
			Payload: engine.PendingRestartSignal{HasPendingRestart: true},
		})

	case "ForceKeepAlive":
		if err := conn.WriteJSON(wsOutMessage{MessageType: "KeepAlive"}); err != nil {
			logging.Warn().Err(err).Msg("Keep-alive response failed")
		}

	case "KeepAlive":
		// Acknowledgment, nothing to do.

	default:
		logging.Debug().Str("type", msg.MessageType).Msg("Ignoring websocket message")
	}
}

// publishLibraryChange resolves added and updated items through the REST API.
// Removed items are gone and can only be reported by id.
func (l *Listener) publishLibraryChange(ctx context.Context, change *libraryChangedDTO) {
	for _, id := range change.ItemsAdded {
		if item := l.fetchItem(ctx, id); item != nil {
			l.publish(Signal{Topic: bus.TopicItemAdded, Payload: engine.LibrarySignal{Item: item}})
		}
	}
	for _, id := range change.ItemsUpdated {
		if item := l.fetchItem(ctx, id); item != nil {
			l.publish(Signal{Topic: bus.TopicItemUpdated, Payload: engine.LibrarySignal{Item: item}})
		}
	}
	for _, id := range change.ItemsRemoved {
		l.publish(Signal{
			Topic:   bus.TopicItemRemoved,
			Payload: engine.LibrarySignal{Item: &models.Item{ID: id, Kind: models.KindOther}},
		})
	}
}

func (l *Listener) fetchItem(ctx context.Context, id string) *models.Item {
	item, err := l.client.ItemByID(ctx, id)
	if err != nil {
		logging.Warn().Err(err).Str("item_id", id).Msg("Failed to resolve changed item")
		return nil
	}
	l.enrichEpisode(ctx, item)
	return item
}

// enrichEpisode attaches the parent series' provider ids to an episode. The
// host only carries them on the series itself; the Plex formatter and the
// default payload's series block need them on the item.
func (l *Listener) enrichEpisode(ctx context.Context, item *models.Item) {
	if item == nil || item.Kind != models.KindEpisode {
		return
	}
	if item.SeriesID == "" || item.SeriesProviderIDs != nil {
		return
	}
	ids, err := l.client.SeriesProviderIDs(ctx, item.SeriesID)
	if err != nil {
		logging.Debug().Err(err).Str("series_id", item.SeriesID).Msg("Failed to resolve series provider ids")
		return
	}
	item.SeriesProviderIDs = ids
}

// publishUserDataChanges forwards played toggles and rating changes as
// user-data signals, with the affected item resolved through the REST API.
// Routine position saves produce no edge and nothing is published for them.
func (l *Listener) publishUserDataChanges(ctx context.Context, change *userDataChangedDTO) {
	for _, c := range l.userData.Apply(change) {
		item := l.fetchItem(ctx, c.ItemID)
		if item == nil {
			continue
		}
		l.publish(Signal{
			Topic: bus.TopicUserDataSaved,
			Payload: engine.UserDataSignal{
				UserID: c.UserID,
				Item:   item,
				Reason: c.Reason,
				Played: c.Played,
			},
		})
	}
}

// activityEntryDTO is the slice of an activity log entry used for
// authentication signals.
type activityEntryDTO struct {
	Type          string `json:"Type"`
	UserID        string `json:"UserId"`
	Name          string `json:"Name"`
	ShortOverview string `json:"ShortOverview"`
}

func (l *Listener) publishActivityEntries(data json.RawMessage) {
	var entries []activityEntryDTO
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.Warn().Err(err).Msg("Failed to parse activity log entries")
		return
	}

	for _, entry := range entries {
		switch entry.Type {
		case "AuthenticationSucceeded":
			l.publish(Signal{
				Topic:   bus.TopicAuthSucceeded,
				Payload: engine.AuthSuccessSignal{UserID: entry.UserID},
			})
		case "AuthenticationFailed":
			// The activity log only carries display strings for failed
			// logins; forward them instead of a resolved identity.
			l.publish(Signal{
				Topic: bus.TopicAuthFailed,
				Payload: engine.AuthFailureSignal{Request: &engine.AuthRequest{
					Username:       entry.Name,
					RemoteEndPoint: entry.ShortOverview,
				}},
			})
		}
	}
}

func (l *Listener) publishAll(signals []Signal) {
	for _, sig := range signals {
		l.publish(sig)
	}
}

func (l *Listener) publish(sig Signal) {
	if err := l.pub.Publish(sig.Topic, sig.Payload); err != nil {
		logging.Error().Err(err).Str("topic", sig.Topic).Msg("Failed to publish signal")
	}
}

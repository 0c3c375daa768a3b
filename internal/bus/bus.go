// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package bus carries raw host signals from the Jellyfin listener to the
// normalizer over an in-process Watermill pub/sub. The indirection keeps the
// websocket read loop decoupled from normalization and delivery latency: a
// slow webhook endpoint never backs up the socket.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/hookbridge/internal/engine"
	"github.com/tomtom215/hookbridge/internal/logging"
)

// Topics, one per raw host signal.
const (
	TopicPlaybackStart    = "signal.playback.start"
	TopicPlaybackProgress = "signal.playback.progress"
	TopicPlaybackStopped  = "signal.playback.stopped"

	TopicUserDataSaved = "signal.userdata.saved"

	TopicItemAdded   = "signal.library.added"
	TopicItemRemoved = "signal.library.removed"
	TopicItemUpdated = "signal.library.updated"

	TopicSessionStarted = "signal.session.started"
	TopicSessionEnded   = "signal.session.ended"

	TopicAuthSucceeded = "signal.auth.succeeded"
	TopicAuthFailed    = "signal.auth.failed"

	TopicSubtitleFailure = "signal.subtitle.failure"
	TopicPendingRestart  = "signal.server.pending_restart"
)

// Bus is the in-process signal bus: a gochannel pub/sub plus a router that
// feeds every topic into the normalizer.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
}

// New builds the bus. AttachNormalizer must be called before Run.
func New() (*Bus, error) {
	logger := watermillLogger{}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		// Signals published while a reconnect storm floods the bus block
		// the publisher instead of being dropped.
		OutputChannelBuffer: 256,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create signal router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	return &Bus{pubsub: pubsub, router: router}, nil
}

// Publish serializes payload and publishes it on topic.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode signal for %s: %w", topic, err)
	}
	return b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), data))
}

// AttachNormalizer registers one consumer handler per signal topic, all
// invoking the corresponding normalizer operation. Handler order within the
// router is irrelevant: ordering is per topic, provided by the pub/sub.
func (b *Bus) AttachNormalizer(n *engine.Normalizer) {
	consume(b, "normalize-playback-start", TopicPlaybackStart, n.HandlePlaybackStart)
	consume(b, "normalize-playback-progress", TopicPlaybackProgress, n.HandlePlaybackProgress)
	consume(b, "normalize-playback-stopped", TopicPlaybackStopped, n.HandlePlaybackStopped)

	consume(b, "normalize-userdata-saved", TopicUserDataSaved, n.HandleUserDataSaved)

	consume(b, "normalize-item-added", TopicItemAdded, n.HandleItemAdded)
	consume(b, "normalize-item-removed", TopicItemRemoved, n.HandleItemRemoved)
	consume(b, "normalize-item-updated", TopicItemUpdated, n.HandleItemUpdated)

	consume(b, "normalize-session-started", TopicSessionStarted, n.HandleSessionStarted)
	consume(b, "normalize-session-ended", TopicSessionEnded, n.HandleSessionEnded)

	consume(b, "normalize-auth-succeeded", TopicAuthSucceeded, n.HandleAuthenticationSucceeded)
	consume(b, "normalize-auth-failed", TopicAuthFailed, n.HandleAuthenticationFailed)

	consume(b, "normalize-subtitle-failure", TopicSubtitleFailure, n.HandleSubtitleDownloadFailure)
	consume(b, "normalize-pending-restart", TopicPendingRestart, n.HandlePendingRestartChanged)
}

// consume registers a consumer handler that decodes the topic's signal type
// and hands it to fn. A payload that fails to decode is logged and dropped:
// nacking it would only redeliver the same bytes.
func consume[S any](b *Bus, name, topic string, fn func(context.Context, *S)) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, func(msg *message.Message) error {
		var sig S
		if err := json.Unmarshal(msg.Payload, &sig); err != nil {
			logging.Error().Err(err).Str("topic", topic).Msg("Discarding undecodable signal")
			return nil
		}
		fn(msg.Context(), &sig)
		return nil
	})
}

// Run starts the router and blocks until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel that closes once the router processes messages.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close shuts down the router and the pub/sub.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubsub.Close()
}

// watermillLogger routes Watermill's internal logging into the global
// zerolog logger.
type watermillLogger struct {
	fields watermill.LogFields
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	event := logging.Error().Err(err)
	addFields(event, l.fields, fields)
	event.Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	event := logging.Debug() // watermill "info" is operational noise
	addFields(event, l.fields, fields)
	event.Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	addFields(event, l.fields, fields)
	event.Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	addFields(event, l.fields, fields)
	event.Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{fields: l.fields.Add(fields)}
}

func addFields(event *zerolog.Event, base, extra watermill.LogFields) {
	for k, v := range base {
		event.Interface(k, v)
	}
	for k, v := range extra {
		event.Interface(k, v)
	}
}

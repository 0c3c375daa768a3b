// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package metrics registers the Prometheus instrumentation for Hookbridge:
// event normalization, hook matching and delivery, circuit breaker state,
// host connection health, and admin API latency. Metrics are exposed on
// /metrics by the admin HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsNormalized counts canonical events produced by the normalizer,
	// by event kind.
	EventsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_events_normalized_total",
			Help: "Canonical events produced by the event normalizer",
		},
		[]string{"event"},
	)

	// EventsDropped counts raw signals dropped before dispatch because a
	// strict precondition (resolvable user/item, known save reason) failed.
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_events_dropped_total",
			Help: "Raw host signals dropped without producing a canonical event",
		},
		[]string{"reason"},
	)

	// HooksMatched counts hooks selected by the matcher per dispatch.
	HooksMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookbridge_hooks_matched_total",
			Help: "Hook configurations matched across all dispatches",
		},
	)

	// Deliveries counts outbound webhook deliveries by format and outcome.
	// Outcome is success, failure, or skipped (no wire mapping / breaker open).
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_deliveries_total",
			Help: "Outbound webhook deliveries by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	// DeliveryDuration observes the wall time of a single outbound call.
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookbridge_delivery_duration_seconds",
			Help:    "Duration of outbound webhook deliveries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	// CircuitBreakerState tracks the per-endpoint breaker state
	// (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hookbridge_circuit_breaker_state",
			Help: "Delivery circuit breaker state per hook endpoint (0=closed, 1=half-open, 2=open)",
		},
		[]string{"endpoint"},
	)

	// TrackedDevices gauges the device-state map size.
	TrackedDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookbridge_tracked_devices",
			Help: "Devices currently tracked by the playback state machine",
		},
	)

	// ScrobbledItems gauges the scrobble deduplication set. The set is
	// never evicted during the process lifetime, so this only grows.
	ScrobbledItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookbridge_scrobbled_items",
			Help: "Items that have crossed the scrobble threshold this process lifetime",
		},
	)

	// HostReconnects counts websocket reconnect attempts to the host.
	HostReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookbridge_host_reconnects_total",
			Help: "Reconnect attempts on the Jellyfin websocket",
		},
	)

	// HostMessages counts inbound websocket messages by message type.
	HostMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookbridge_host_messages_total",
			Help: "Inbound Jellyfin websocket messages by type",
		},
		[]string{"type"},
	)

	// APIRequestDuration observes admin API request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookbridge_api_request_duration_seconds",
			Help:    "Admin API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Delivery outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Drop reasons for EventsDropped.
const (
	DropNoUser            = "no_user"
	DropNoItem            = "no_item"
	DropVirtualItem       = "virtual_item"
	DropUnresolvedUser    = "unresolved_user"
	DropUnsupportedReason = "unsupported_save_reason"
	DropNoSession         = "no_session"
)

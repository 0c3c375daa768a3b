// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package engine normalizes raw host signals into canonical events.
//
// The normalizer is a set of thin handlers, one per raw signal kind. Two
// pieces of process-lifetime state support them: a per-device playback state
// machine that turns repeated progress callbacks into edge-triggered
// Pause/Resume events and detects sessions that end without an explicit
// stop, and a scrobble set that ensures the 90% watched threshold fires at
// most once per item.
//
// Handlers run on whatever goroutine delivers the raw signal; both state
// components are mutex-guarded so concurrent callbacks for the same device
// or item observe at-most-once transitions.
package engine

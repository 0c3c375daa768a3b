// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package dispatch delivers canonical events to configured webhooks.
//
// For every event the sender re-reads the hook list, selects the hooks whose
// event set and optional user filter match, and delivers to each in
// configuration order. Delivery is sequential and best-effort: a failing
// hook is logged and skipped, it never aborts the remaining hooks and is
// never retried. Each destination endpoint sits behind its own circuit
// breaker so a dead endpoint stops consuming delivery timeouts.
package dispatch

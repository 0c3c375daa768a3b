// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package jellyfin connects Hookbridge to a Jellyfin server.
//
// The Listener holds a websocket on /socket, subscribes to session
// snapshots and library change notifications, and turns them into raw
// signals on the bus. The Client covers the REST surface the normalizer
// needs: resolving users, fetching items and caching the server identity.
//
// Raw signal extraction is deliberately dumb. The session differ only
// compares consecutive snapshots; all event semantics (edge detection,
// scrobble threshold, synthetic stops) live in the engine package.
package jellyfin

// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package models defines the canonical domain types shared across Hookbridge:
// hook configurations, the closed canonical event enumeration, and the
// user/item/session/server snapshots carried by an EventInfo.
package models

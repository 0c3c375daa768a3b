// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package engine

import (
	"sync"

	"github.com/tomtom215/hookbridge/internal/metrics"
)

// ScrobbleThresholdPercent is the watched percentage at which an item
// scrobbles.
const ScrobbleThresholdPercent = 90.0

// ScrobbleTracker remembers which items have already fired a Scrobble event.
// Entries are never evicted: suppression is global to the item id for the
// process lifetime, so re-watching an item does not re-scrobble until the
// process restarts. Memory therefore grows with the number of distinct items
// watched; the hookbridge_scrobbled_items gauge makes that growth visible.
type ScrobbleTracker struct {
	mu    sync.Mutex
	items map[string]struct{}
}

// NewScrobbleTracker returns an empty tracker.
func NewScrobbleTracker() *ScrobbleTracker {
	return &ScrobbleTracker{items: make(map[string]struct{})}
}

// HasScrobbled reports whether the item already crossed the threshold.
func (t *ScrobbleTracker) HasScrobbled(itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.items[itemID]
	return ok
}

// MarkScrobbled records the item as scrobbled.
func (t *ScrobbleTracker) MarkScrobbled(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.items[itemID] = struct{}{}
	metrics.ScrobbledItems.Set(float64(len(t.items)))
}

// MarkOnce marks the item and reports whether this call was the first to do
// so. Check-and-mark happens under one lock so concurrent progress callbacks
// for the same item cannot both fire the scrobble.
func (t *ScrobbleTracker) MarkOnce(itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.items[itemID]; ok {
		return false
	}
	t.items[itemID] = struct{}{}
	metrics.ScrobbledItems.Set(float64(len(t.items)))
	return true
}

// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package engine

import (
	"sync"

	"github.com/tomtom215/hookbridge/internal/metrics"
)

// DeviceState is the playback state of a single device.
type DeviceState int

const (
	StateUnknown DeviceState = iota
	StatePlaying
	StatePaused
	StateStopped
)

// String returns the state name for logging.
func (s DeviceState) String() string {
	switch s {
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// DeviceTracker maintains the per-device playback state machine. A device
// absent from the map is equivalent to Unknown; Get records that default so
// the map always reflects every device observed since startup (entries are
// removed on session end via Clear).
type DeviceTracker struct {
	mu     sync.Mutex
	states map[string]DeviceState
}

// NewDeviceTracker returns an empty tracker.
func NewDeviceTracker() *DeviceTracker {
	return &DeviceTracker{states: make(map[string]DeviceState)}
}

// Get returns the device's state, recording Unknown on first observation.
func (t *DeviceTracker) Get(deviceID string) DeviceState {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[deviceID]
	if !ok {
		t.states[deviceID] = StateUnknown
		metrics.TrackedDevices.Set(float64(len(t.states)))
	}
	return state
}

// Set records a state transition for the device.
func (t *DeviceTracker) Set(deviceID string, state DeviceState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.states[deviceID] = state
	metrics.TrackedDevices.Set(float64(len(t.states)))
}

// Clear removes the device entirely; a later Get sees Unknown again.
func (t *DeviceTracker) Clear(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.states, deviceID)
	metrics.TrackedDevices.Set(float64(len(t.states)))
}

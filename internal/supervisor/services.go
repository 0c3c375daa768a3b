// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package supervisor

import (
	"context"

	"github.com/tomtom215/hookbridge/internal/bus"
)

// BusService adapts the signal bus to the suture service contract.
type BusService struct {
	Bus *bus.Bus
}

// Serve runs the bus router until ctx is cancelled.
func (s *BusService) Serve(ctx context.Context) error {
	return s.Bus.Run(ctx)
}

// String names the service in supervisor logs.
func (s *BusService) String() string { return "signal-bus" }

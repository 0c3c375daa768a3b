// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/hookbridge/internal/models"
)

// ErrSkipped reports that a formatter has no representation for the event
// kind and deliberately sent nothing. It is not a delivery failure.
var ErrSkipped = errors.New("event not representable in this format")

// Formatter renders a canonical event into one wire format and delivers it.
type Formatter interface {
	Send(ctx context.Context, url string, event *models.EventInfo) error
}

// FormatterSet holds one formatter per wire format, sharing a single HTTP
// client.
type FormatterSet struct {
	defaultFmt Formatter
	getFmt     Formatter
	plexFmt    Formatter
}

// NewFormatterSet builds the formatters around client.
func NewFormatterSet(client *http.Client) *FormatterSet {
	return &FormatterSet{
		defaultFmt: &defaultFormatter{client: client},
		getFmt:     &getFormatter{client: client},
		plexFmt:    &plexFormatter{client: client},
	}
}

// For returns the formatter for format. Unknown formats fall back to Default
// so a hook authored against a newer version still delivers something.
func (s *FormatterSet) For(format models.HookFormat) Formatter {
	switch format {
	case models.FormatGet:
		return s.getFmt
	case models.FormatPlex:
		return s.plexFmt
	default:
		return s.defaultFmt
	}
}

// checkStatus converts a non-2xx response into a delivery failure. The body
// is not read; destinations are free to return anything.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("destination returned status %d", resp.StatusCode)
	}
	return nil
}

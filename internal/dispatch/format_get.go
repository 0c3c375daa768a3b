// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tomtom215/hookbridge/internal/models"
)

// getFormatter issues a bodyless GET with the event summarized as query
// parameters, merged into any parameters already present on the hook URL.
// Destinations that only need "something happened" use this.
type getFormatter struct {
	client *http.Client
}

func (f *getFormatter) Send(ctx context.Context, rawURL string, event *models.EventInfo) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid hook url: %w", err)
	}

	q := u.Query()
	q.Set("event", string(event.Event))
	q.Set("server", event.Server.Name)
	if event.User != nil {
		q.Set("user", event.User.Name)
	}
	if event.Item != nil {
		q.Set("media_type", event.Item.MediaType)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

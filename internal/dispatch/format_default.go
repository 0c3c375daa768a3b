// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookbridge/internal/models"
)

// defaultFormatter POSTs the full canonical event as a JSON document. This
// is the richest format and the fallback for unknown format names.
type defaultFormatter struct {
	client *http.Client
}

type defaultPayload struct {
	Event          models.HookEvent  `json:"event"`
	Item           *models.Item      `json:"item,omitempty"`
	User           *models.User      `json:"user,omitempty"`
	Session        *models.Session   `json:"session,omitempty"`
	Server         models.ServerInfo `json:"server"`
	AdditionalData any               `json:"additional_data,omitempty"`
	Series         *seriesPayload    `json:"series,omitempty"`
}

// seriesPayload surfaces the parent series of an episode so destinations do
// not have to resolve it themselves.
type seriesPayload struct {
	Name        string            `json:"name"`
	ProviderIDs map[string]string `json:"provider_ids,omitempty"`
}

func (f *defaultFormatter) Send(ctx context.Context, url string, event *models.EventInfo) error {
	payload := defaultPayload{
		Event:          event.Event,
		Item:           event.Item,
		User:           event.User,
		Session:        event.Session,
		Server:         event.Server,
		AdditionalData: event.AdditionalData,
	}
	if event.Item != nil && event.Item.Kind == models.KindEpisode && event.Item.SeriesName != "" {
		payload.Series = &seriesPayload{
			Name:        event.Item.SeriesName,
			ProviderIDs: event.Item.SeriesProviderIDs,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

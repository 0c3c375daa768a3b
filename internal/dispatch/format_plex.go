// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookbridge/internal/models"
)

// plexFormatter emulates a Plex Media Server webhook: a multipart form POST
// with a single "payload" field holding the JSON document. Services built
// for Plex webhooks (Simkl, Trakt bridges, ...) accept these unmodified.
//
// Only the event kinds Plex has names for are delivered; everything else is
// skipped without an error.
type plexFormatter struct {
	client *http.Client
}

// plexPayload mirrors the field casing of a real Plex webhook document.
type plexPayload struct {
	Event    string       `json:"event"`
	User     bool         `json:"user"`
	Owner    bool         `json:"owner"`
	Account  *plexAccount `json:"Account,omitempty"`
	Server   plexServer   `json:"Server"`
	Player   *plexPlayer  `json:"Player,omitempty"`
	Metadata *plexMeta    `json:"Metadata,omitempty"`
}

type plexAccount struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type plexServer struct {
	Title string `json:"title"`
	UUID  string `json:"uuid"`
}

type plexPlayer struct {
	Local         bool   `json:"local"`
	PublicAddress string `json:"publicAddress"`
	Title         string `json:"title"`
	UUID          string `json:"uuid"`
}

type plexMeta struct {
	LibrarySectionType string `json:"librarySectionType"`
	GUID               string `json:"guid"`
	Title              string `json:"title"`
	Type               string `json:"type"`
	ParentTitle        string `json:"parentTitle,omitempty"`
	GrandparentTitle   string `json:"grandparentTitle,omitempty"`
	AddedAt            int64  `json:"addedAt"`
	UpdatedAt          int64  `json:"updatedAt"`
	Year               int    `json:"year,omitempty"`
	Duration           int64  `json:"duration"`
}

func (f *plexFormatter) Send(ctx context.Context, url string, event *models.EventInfo) error {
	name, ok := plexEventName(event.Event)
	if !ok {
		return ErrSkipped
	}

	payload := plexPayload{
		Event: name,
		User:  true,
		Server: plexServer{
			Title: event.Server.Name,
			UUID:  event.Server.ID,
		},
	}
	if event.User != nil {
		payload.Owner = event.User.IsAdministrator
		payload.Account = &plexAccount{
			ID:    event.User.ID,
			Title: event.User.Name,
		}
	}
	if event.Session != nil {
		payload.Player = &plexPlayer{
			Local:         true,
			PublicAddress: event.Session.RemoteEndPoint,
			Title:         event.Session.DeviceName,
			UUID:          event.Session.ID,
		}
	}
	if event.Item != nil {
		payload.Metadata = plexMetadata(event.Item)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	field, err := writer.CreateFormField("payload")
	if err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := field.Write(body); err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &form)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// plexEventName maps a canonical event kind to Plex's name for it. Both
// Scrobble and MarkPlayed become media.scrobble: a manual mark-played is the
// closest thing Plex consumers understand.
func plexEventName(kind models.HookEvent) (string, bool) {
	switch kind {
	case models.EventPlay:
		return "media.play", true
	case models.EventPause:
		return "media.pause", true
	case models.EventResume:
		return "media.resume", true
	case models.EventStop:
		return "media.stop", true
	case models.EventScrobble, models.EventMarkPlayed:
		return "media.scrobble", true
	case models.EventRate:
		return "media.rate", true
	case models.EventItemAdded:
		return "library.new", true
	default:
		return "", false
	}
}

func plexMetadata(item *models.Item) *plexMeta {
	modified := item.DateModified
	// A year-one DateModified means the host never set it.
	if modified.Year() == 1 {
		modified = item.DateCreated
	}
	return &plexMeta{
		LibrarySectionType: plexSectionType(item.Kind),
		GUID:               plexGUID(item),
		Title:              item.Name,
		Type:               plexMediaType(item.Kind),
		ParentTitle:        item.ParentName,
		GrandparentTitle:   item.SeriesName,
		AddedAt:            item.DateCreated.Unix(),
		UpdatedAt:          modified.Unix(),
		Year:               item.ProductionYear,
		Duration:           item.RunTimeTicks / 1000,
	}
}

// plexGUID synthesizes a Plex agent GUID from the item's external metadata
// ids. Episodes prefer TheTVDB and fall back to TMDB; movies use IMDb.
func plexGUID(item *models.Item) string {
	switch item.Kind {
	case models.KindEpisode:
		provider := "thetvdb"
		id := item.SeriesProviderID("Tvdb")
		if id == "" {
			id = item.SeriesProviderID("Tmdb")
			provider = "themoviedb"
		}
		return fmt.Sprintf("com.plexapp.agents.%s://%s/%d/%d?lang=en",
			provider, id, item.SeasonNumber, item.EpisodeNumber)
	case models.KindMovie:
		return fmt.Sprintf("com.plexapp.agents.imdb://%s?lang=en", item.ProviderID("Imdb"))
	case models.KindAudio:
		return fmt.Sprintf("com.plexapp.agents.plexmusic://track/%s/%s", item.Name, item.ParentName)
	default:
		return fmt.Sprintf("com.plexapp.agents.unknown://%s", item.Name)
	}
}

func plexMediaType(kind models.ItemKind) string {
	switch kind {
	case models.KindEpisode:
		return "episode"
	case models.KindMovie:
		return "movie"
	case models.KindAudio:
		return "track"
	default:
		return "unknown"
	}
}

func plexSectionType(kind models.ItemKind) string {
	switch kind {
	case models.KindEpisode:
		return "show"
	case models.KindMovie:
		return "movie"
	case models.KindAudio:
		return "artist"
	default:
		return "unknown"
	}
}

// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package models

import "time"

// ItemKind classifies a media item for formatter purposes. It is a closed
// variant: anything that is not an episode, movie or audio track is Other.
type ItemKind string

const (
	KindMovie   ItemKind = "Movie"
	KindEpisode ItemKind = "Episode"
	KindAudio   ItemKind = "Audio"
	KindOther   ItemKind = "Other"
)

// ItemKindOf maps a Jellyfin item type name to a closed ItemKind.
func ItemKindOf(jellyfinType string) ItemKind {
	switch jellyfinType {
	case "Movie":
		return KindMovie
	case "Episode":
		return KindEpisode
	case "Audio":
		return KindAudio
	default:
		return KindOther
	}
}

// Item is the snapshot of a media item carried by an EventInfo. Fields that
// only apply to one kind (series/season data for episodes, album data for
// audio) are zero-valued otherwise.
type Item struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      ItemKind `json:"kind"`
	MediaType string   `json:"media_type,omitempty"` // Video, Audio, ...

	// Path is the item's file path. Empty for virtual items, which are
	// never scrobbled and never produce library events.
	Path      string `json:"path,omitempty"`
	IsVirtual bool   `json:"is_virtual,omitempty"`

	RunTimeTicks   int64 `json:"run_time_ticks,omitempty"`
	ProductionYear int   `json:"production_year,omitempty"`

	DateCreated  time.Time `json:"date_created,omitempty"`
	DateModified time.Time `json:"date_modified,omitempty"`

	// ProviderIDs holds external metadata ids (Imdb, Tvdb, Tmdb, ...).
	ProviderIDs map[string]string `json:"provider_ids,omitempty"`

	// ParentName is the direct display parent: season for episodes,
	// album for audio tracks.
	ParentName string `json:"parent_name,omitempty"`

	// Episode fields.
	SeriesID          string            `json:"series_id,omitempty"`
	SeriesName        string            `json:"series_name,omitempty"`
	SeriesProviderIDs map[string]string `json:"series_provider_ids,omitempty"`
	SeasonNumber      int               `json:"season_number,omitempty"`
	EpisodeNumber     int               `json:"episode_number,omitempty"`

	// Audio fields.
	AlbumArtist string `json:"album_artist,omitempty"`
}

// ProviderID returns the external id registered under name, or "".
func (i *Item) ProviderID(name string) string {
	if i.ProviderIDs == nil {
		return ""
	}
	return i.ProviderIDs[name]
}

// SeriesProviderID returns the parent series' external id under name, or "".
func (i *Item) SeriesProviderID(name string) string {
	if i.SeriesProviderIDs == nil {
		return ""
	}
	return i.SeriesProviderIDs[name]
}

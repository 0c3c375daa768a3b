// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package jellyfin

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookbridge/internal/models"
)

// Wire DTOs mirroring Jellyfin's PascalCase JSON. Only the fields Hookbridge
// reads are declared; everything else is dropped on decode.

type wsMessage struct {
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

type wsOutMessage struct {
	MessageType string `json:"MessageType"`
	Data        string `json:"Data,omitempty"`
}

type sessionDTO struct {
	ID                 string        `json:"Id"`
	Client             string        `json:"Client"`
	DeviceID           string        `json:"DeviceId"`
	DeviceName         string        `json:"DeviceName"`
	RemoteEndPoint     string        `json:"RemoteEndPoint"`
	ApplicationVersion string        `json:"ApplicationVersion"`
	UserID             string        `json:"UserId"`
	UserName           string        `json:"UserName"`
	NowPlayingItem     *itemDTO      `json:"NowPlayingItem"`
	PlayState          *playStateDTO `json:"PlayState"`
	AdditionalUsers    []sessionUser `json:"AdditionalUsers"`
}

type sessionUser struct {
	UserID   string `json:"UserId"`
	UserName string `json:"UserName"`
}

type playStateDTO struct {
	PositionTicks *int64 `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	IsMuted       bool   `json:"IsMuted"`
	VolumeLevel   int    `json:"VolumeLevel"`
}

type itemDTO struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	MediaType         string            `json:"MediaType"`
	Path              string            `json:"Path"`
	LocationType      string            `json:"LocationType"`
	RunTimeTicks      *int64            `json:"RunTimeTicks"`
	ProductionYear    int               `json:"ProductionYear"`
	DateCreated       time.Time         `json:"DateCreated"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
	SeriesID          string            `json:"SeriesId"`
	SeriesName        string            `json:"SeriesName"`
	SeasonName        string            `json:"SeasonName"`
	Album             string            `json:"Album"`
	AlbumArtist       string            `json:"AlbumArtist"`
	ParentIndexNumber int               `json:"ParentIndexNumber"`
	IndexNumber       int               `json:"IndexNumber"`
}

type userDTO struct {
	ID     string        `json:"Id"`
	Name   string        `json:"Name"`
	Policy userPolicyDTO `json:"Policy"`
}

type userPolicyDTO struct {
	IsAdministrator bool `json:"IsAdministrator"`
}

type systemInfoDTO struct {
	ID         string `json:"Id"`
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

type userDataChangedDTO struct {
	UserID       string            `json:"UserId"`
	UserDataList []userItemDataDTO `json:"UserDataList"`
}

type userItemDataDTO struct {
	ItemID string   `json:"ItemId"`
	Played bool     `json:"Played"`
	Rating *float64 `json:"Rating"`
}

type libraryChangedDTO struct {
	ItemsAdded   []string `json:"ItemsAdded"`
	ItemsRemoved []string `json:"ItemsRemoved"`
	ItemsUpdated []string `json:"ItemsUpdated"`
}

func (u *userDTO) toModel() *models.User {
	return &models.User{
		ID:              u.ID,
		Name:            u.Name,
		IsAdministrator: u.Policy.IsAdministrator,
	}
}

func (i *itemDTO) toModel() *models.Item {
	item := &models.Item{
		ID:             i.ID,
		Name:           i.Name,
		Kind:           models.ItemKindOf(i.Type),
		MediaType:      i.MediaType,
		Path:           i.Path,
		IsVirtual:      i.LocationType == "Virtual",
		ProductionYear: i.ProductionYear,
		// Jellyfin's item DTO does not expose a modification time; the
		// Plex formatter falls back to DateCreated for a zero value.
		DateCreated:   i.DateCreated,
		ProviderIDs:   i.ProviderIDs,
		SeriesID:      i.SeriesID,
		SeriesName:    i.SeriesName,
		SeasonNumber:  i.ParentIndexNumber,
		EpisodeNumber: i.IndexNumber,
		AlbumArtist:   i.AlbumArtist,
	}
	if i.RunTimeTicks != nil {
		item.RunTimeTicks = *i.RunTimeTicks
	}
	switch item.Kind {
	case models.KindEpisode:
		item.ParentName = i.SeasonName
	case models.KindAudio:
		item.ParentName = i.Album
	}
	return item
}

func (s *sessionDTO) toModel() *models.Session {
	session := &models.Session{
		ID:                 s.ID,
		Client:             s.Client,
		DeviceID:           s.DeviceID,
		DeviceName:         s.DeviceName,
		RemoteEndPoint:     s.RemoteEndPoint,
		ApplicationVersion: s.ApplicationVersion,
		UserID:             s.UserID,
		UserName:           s.UserName,
	}
	if s.NowPlayingItem != nil {
		session.NowPlaying = s.NowPlayingItem.toModel()
	}
	if s.PlayState != nil {
		session.PlayState = &models.PlayState{
			PositionTicks: s.PlayState.PositionTicks,
			IsPaused:      s.PlayState.IsPaused,
			IsMuted:       s.PlayState.IsMuted,
			VolumeLevel:   s.PlayState.VolumeLevel,
		}
	}
	return session
}

// users returns every user attached to the session, session owner first.
// Anonymous sessions return an empty slice.
func (s *sessionDTO) users() []models.User {
	var users []models.User
	if s.UserID != "" {
		users = append(users, models.User{ID: s.UserID, Name: s.UserName})
	}
	for _, u := range s.AdditionalUsers {
		users = append(users, models.User{ID: u.UserID, Name: u.UserName})
	}
	return users
}

// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

// Package hookstore owns the hook configuration list. It is the
// authoritative copy: the dispatch engine reads it fresh on every dispatch
// and never mutates it; the admin API mutates it through Upsert/Delete.
// The list is persisted as a JSON file, written atomically.
package hookstore

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/hookbridge/internal/models"
)

// ErrNotFound is returned when an upsert names an id the store does not hold.
var ErrNotFound = errors.New("hook not found")

// Store is a file-backed, mutex-guarded hook list. Hook order is the order
// hooks were created in and is preserved across edits and restarts; the
// matcher relies on it.
type Store struct {
	mu    sync.RWMutex
	path  string
	hooks []models.HookConfig
}

// Open loads the store from path. A missing file yields an empty store; the
// file is created on first mutation.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hook store %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.hooks); err != nil {
		return nil, fmt.Errorf("failed to parse hook store %s: %w", path, err)
	}
	return s, nil
}

// List returns the hooks in configuration order. The slice is a copy; the
// caller may not observe later mutations.
func (s *Store) List() []models.HookConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HookConfig, len(s.hooks))
	copy(out, s.hooks)
	return out
}

// Hooks implements the dispatch hook source: the configuration is re-read
// on every dispatch, no caching layer sits in between.
func (s *Store) Hooks() []models.HookConfig {
	return s.List()
}

// Get returns the hook with the given id.
func (s *Store) Get(id string) (models.HookConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.hooks {
		if h.ID == id {
			return h, true
		}
	}
	return models.HookConfig{}, false
}

// Upsert validates and stores a hook. A blank id creates a new hook with a
// generated id; a known id replaces that hook in place; an unknown id is an
// error. The updated hook is returned.
func (s *Store) Upsert(hook models.HookConfig) (models.HookConfig, error) {
	if err := validate(&hook); err != nil {
		return models.HookConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if hook.ID == "" {
		hook.ID = newID()
		s.hooks = append(s.hooks, hook)
		return hook, s.persist()
	}

	for i := range s.hooks {
		if s.hooks[i].ID == hook.ID {
			s.hooks[i] = hook
			return hook, s.persist()
		}
	}
	return models.HookConfig{}, fmt.Errorf("upsert %s: %w", hook.ID, ErrNotFound)
}

// Delete removes the hook with the given id. Deleting an unknown id is a
// no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.hooks[:0]
	for _, h := range s.hooks {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(s.hooks) {
		return nil
	}
	s.hooks = kept
	return s.persist()
}

// persist writes the hook list atomically. Callers must hold s.mu.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.hooks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode hook store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create hook store directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write hook store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace hook store: %w", err)
	}
	return nil
}

func validate(hook *models.HookConfig) error {
	u, err := url.Parse(hook.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("hook url %q is not an absolute URL", hook.URL)
	}
	if len(hook.Events) == 0 {
		return fmt.Errorf("hook must subscribe to at least one event")
	}
	for _, e := range hook.Events {
		if _, err := models.ParseHookEvent(string(e)); err != nil {
			return err
		}
	}
	if hook.Format == "" {
		hook.Format = models.FormatDefault
	}
	return nil
}

// newID matches the original id shape: a UUID without separators.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

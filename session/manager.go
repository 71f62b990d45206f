package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Manager owns the in-memory Session and persists every mutation to its
// Store. Writers overwrite unconditionally; the last write wins.
type Manager struct {
	store Store

	mu      sync.RWMutex
	current Session
}

// Load builds a Manager from the tokens persisted in store. A token found
// only under KeyLegacyToken is rewritten to KeyAccessToken and the legacy
// key removed.
func Load(ctx context.Context, store Store) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	m := &Manager{store: store}

	access, ok, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", KeyAccessToken, err)
	}
	if !ok || access == "" {
		if access, err = m.migrateLegacy(ctx); err != nil {
			return nil, err
		}
	}

	refresh, _, err := store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", KeyRefreshToken, err)
	}

	m.current = Session{AccessToken: access, RefreshToken: refresh}
	return m, nil
}

func (m *Manager) migrateLegacy(ctx context.Context) (string, error) {
	legacy, ok, err := m.store.Get(ctx, KeyLegacyToken)
	if err != nil {
		return "", fmt.Errorf("session: read %s: %w", KeyLegacyToken, err)
	}
	if !ok || legacy == "" {
		return "", nil
	}
	if err := m.store.Set(ctx, KeyAccessToken, legacy); err != nil {
		return "", fmt.Errorf("session: migrate %s: %w", KeyLegacyToken, err)
	}
	if err := m.store.Delete(ctx, KeyLegacyToken); err != nil {
		return "", fmt.Errorf("session: migrate %s: %w", KeyLegacyToken, err)
	}
	log.Debug().Msg("session: migrated legacy access token key")
	return legacy, nil
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.AccessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.RefreshToken
}

// SetAccessToken replaces the access token. An empty token deletes both the
// current and the legacy storage keys.
func (m *Manager) SetAccessToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.AccessToken = token
	return m.persistAccess(ctx, token)
}

// SetRefreshToken replaces the refresh token. An empty token deletes its key.
func (m *Manager) SetRefreshToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.RefreshToken = token
	return m.persistRefresh(ctx, token)
}

// Set replaces both tokens at once.
func (m *Manager) Set(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	if err := m.persistAccess(ctx, s.AccessToken); err != nil {
		return err
	}
	return m.persistRefresh(ctx, s.RefreshToken)
}

// Clear drops both tokens from memory and storage.
func (m *Manager) Clear(ctx context.Context) error {
	return m.Set(ctx, Session{})
}

func (m *Manager) persistAccess(ctx context.Context, token string) error {
	if token == "" {
		if err := m.store.Delete(ctx, KeyAccessToken, KeyLegacyToken); err != nil {
			return fmt.Errorf("session: delete access token: %w", err)
		}
		return nil
	}
	if err := m.store.Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("session: store access token: %w", err)
	}
	return nil
}

func (m *Manager) persistRefresh(ctx context.Context, token string) error {
	if token == "" {
		if err := m.store.Delete(ctx, KeyRefreshToken); err != nil {
			return fmt.Errorf("session: delete refresh token: %w", err)
		}
		return nil
	}
	if err := m.store.Set(ctx, KeyRefreshToken, token); err != nil {
		return fmt.Errorf("session: store refresh token: %w", err)
	}
	return nil
}

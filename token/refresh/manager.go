package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
)

const defaultTokenLength = 32

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo        Repo
	tokenLength int
	expiry      time.Duration
	nowFunc     func() time.Time
	// lock makes Rotate atomic so a token can be exchanged only once.
	lock sync.Mutex
}

type Option func(*Manager)

// WithTokenLength sets the number of random bytes per token
func WithTokenLength(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.tokenLength = n
		}
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, expiry time.Duration, opts ...Option) *Manager {
	m := &Manager{
		repo:        repo,
		tokenLength: defaultTokenLength,
		expiry:      expiry,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create generates a new refresh token for userID and stores it. Any
// previous token of the user is invalidated.
func (m *Manager) Create(userID string) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.create(userID)
}

func (m *Manager) create(userID string) (string, error) {
	// Single refresh token per user
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.nowFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate exchanges token for a new one, returning the owning user id. The
// presented token stops working. Unknown and expired tokens are rejected.
func (m *Manager) Rotate(token string) (userID, newToken string, err error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rt, err := m.repo.Get(token)
	if err != nil || rt == nil {
		return "", "", apperrors.ErrInvalidRefreshToken
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return "", "", apperrors.ErrRefreshTokenExpired
	}

	newToken, err = m.create(rt.UserID)
	if err != nil {
		return "", "", err
	}
	return rt.UserID, newToken, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// RevokeUser removes the user's refresh token, if any
func (m *Manager) RevokeUser(userID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	rt, err := m.repo.GetByUserID(userID)
	if err != nil || rt == nil {
		return nil
	}
	return m.repo.Delete(rt.Token)
}

// IsExpired checks if a refresh token has outlived the configured expiry.
// A zero expiry never expires.
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	if m.expiry <= 0 {
		return false
	}
	return m.nowFunc().Sub(rt.Iat) > m.expiry
}

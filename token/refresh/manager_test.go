package refresh_test

import (
	"sync"
	"testing"
	"time"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/token/refresh"
	refreshrepofake "github.com/dream1290/dbxui-sub000/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func TestCreate_SingleTokenPerUser(t *testing.T) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	m := refresh.NewManager(repo, time.Hour, refresh.WithTokenLength(16))

	first, err := m.Create("u1")
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := m.Create("u1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = m.Get(first)
	require.Error(t, err)
	list, err := repo.List(0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRotate(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
	tok, err := m.Create("u1")
	require.NoError(t, err)

	userID, next, err := m.Rotate(tok)
	require.NoError(t, err)
	require.Equal(t, "u1", userID)
	require.NotEqual(t, tok, next)

	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, _, err = m.Rotate(next)
	require.NoError(t, err)
}

func TestRotate_Concurrent(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
	tok, err := m.Create("u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var lock sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := m.Rotate(tok); err == nil {
				lock.Lock()
				succeeded++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, succeeded)
}

func TestRotate_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour,
		refresh.WithNowFunc(func() time.Time { return now }))
	tok, err := m.Create("u1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
	_, err = m.Get(tok)
	require.Error(t, err)
}

func TestRevokeUser(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), 0)
	tok, err := m.Create("u1")
	require.NoError(t, err)

	require.NoError(t, m.RevokeUser("u1"))
	require.NoError(t, m.RevokeUser("u1"))
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream1290/dbxui-sub000/token"
)

func TestMemoryDenylist_DenyOnce(t *testing.T) {
	d := token.NewMemoryDenylist()
	until := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	fresh, err := d.DenyOnce("abc", until)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = d.DenyOnce("abc", until)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.True(t, d.Denied("abc"))
	assert.False(t, d.Denied("other"))
}

func TestMemoryDenylist_Prune(t *testing.T) {
	d := token.NewMemoryDenylist()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, d.Deny("old", now.Add(-time.Minute)))
	require.NoError(t, d.Deny("live", now.Add(time.Minute)))

	assert.Equal(t, 1, d.Prune(now))
	assert.False(t, d.Denied("old"))
	assert.True(t, d.Denied("live"))
	assert.Equal(t, 1, d.Len())
}

package token_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bibihez/moos/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFixed(tokens map[string]string) token.AuthoritativeLookup {
	return func(_ context.Context, eventID string) (string, error) {
		tok, ok := tokens[eventID]
		if !ok {
			return "", errors.New("no such event")
		}
		return tok, nil
	}
}

func TestResolverIsOwner(t *testing.T) {
	ctx := context.Background()
	authoritative := map[string]string{"bday-1": "secret-1", "bday-2": "secret-2"}

	t.Run("cache miss means not owner", func(t *testing.T) {
		r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}
		ok, err := r.IsOwner(ctx, "dev-a", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("attached token grants ownership", func(t *testing.T) {
		r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}
		require.NoError(t, r.Attach(ctx, "dev-a", "bday-1", "secret-1"))
		ok, err := r.IsOwner(ctx, "dev-a", "bday-1")
		require.NoError(t, err)
		assert.True(t, ok)

		// other devices stay outsiders
		ok, err = r.IsOwner(ctx, "dev-b", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stale cached token does not grant ownership", func(t *testing.T) {
		r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}
		require.NoError(t, r.Attach(ctx, "dev-a", "bday-1", "old-secret"))
		ok, err := r.IsOwner(ctx, "dev-a", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}
		require.NoError(t, r.Attach(ctx, "dev-a", "bday-gone", "whatever"))
		_, err := r.IsOwner(ctx, "dev-a", "bday-gone")
		assert.Error(t, err)
	})

	t.Run("empty device id is never the organizer", func(t *testing.T) {
		r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}

		// none of these may land under the empty cache key
		require.NoError(t, r.Attach(ctx, "", "bday-1", "secret-1"))
		require.NoError(t, r.ImportFromLink(ctx, "", "bday-1", "secret-1"))

		ok, err := r.IsOwner(ctx, "", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)

		// and no device inherits what a device-less client presented
		ok, err = r.IsOwner(ctx, "dev-a", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cache is scoped per event", func(t *testing.T) {
		r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}
		require.NoError(t, r.Attach(ctx, "dev-a", "bday-1", "secret-1"))
		ok, err := r.IsOwner(ctx, "dev-a", "bday-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestResolverImportFromLink(t *testing.T) {
	ctx := context.Background()
	authoritative := map[string]string{"bday-1": "secret-1"}
	r := &token.Resolver{Cache: token.NewMemoryCache(), Lookup: lookupFixed(authoritative)}

	t.Run("empty token is a no-op", func(t *testing.T) {
		require.NoError(t, r.ImportFromLink(ctx, "dev-b", "bday-1", ""))
		ok, err := r.IsOwner(ctx, "dev-b", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("organizer link re-establishes ownership on a new device", func(t *testing.T) {
		require.NoError(t, r.ImportFromLink(ctx, "dev-b", "bday-1", "secret-1"))
		ok, err := r.IsOwner(ctx, "dev-b", "bday-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("later import overwrites", func(t *testing.T) {
		require.NoError(t, r.ImportFromLink(ctx, "dev-b", "bday-1", "bogus"))
		ok, err := r.IsOwner(ctx, "dev-b", "bday-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestResolverVerifyDirect(t *testing.T) {
	ctx := context.Background()
	r := &token.Resolver{Lookup: lookupFixed(map[string]string{"bday-1": "secret-1"})}

	ok, err := r.VerifyDirect(ctx, "bday-1", "secret-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.VerifyDirect(ctx, "bday-1", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.VerifyDirect(ctx, "bday-1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := token.NewMemoryCache()

	_, ok, err := c.Get(ctx, "dev", "ev")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "dev", "ev", "tok-1"))
	got, ok, err := c.Get(ctx, "dev", "ev")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, c.Put(ctx, "dev", "ev", "tok-2"))
	got, _, err = c.Get(ctx, "dev", "ev")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)
}

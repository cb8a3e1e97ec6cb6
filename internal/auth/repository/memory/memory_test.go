package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
)

func TestCreate_DuplicateEmail(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &domain.User{ID: "u1", Email: "a@x.com"}))
	err := r.Create(ctx, &domain.User{ID: "u2", Email: "a@x.com"})
	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestRotateRefreshToken_Conditional(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	rt := &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    "u1",
		TokenHash: "old",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, r.StoreRefreshToken(ctx, rt))

	t.Run("matching state rotates", func(t *testing.T) {
		ok, err := r.RotateRefreshToken(ctx, "rt-1", "old", "new", time.Now().Add(time.Hour), domain.RequestMeta{})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale hash loses", func(t *testing.T) {
		ok, err := r.RotateRefreshToken(ctx, "rt-1", "old", "newer", time.Now().Add(time.Hour), domain.RequestMeta{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revoked record never rotates", func(t *testing.T) {
		_, err := r.RevokeRefreshTokenByHash(ctx, "new")
		require.NoError(t, err)

		ok, err := r.RotateRefreshToken(ctx, "rt-1", "new", "newest", time.Now().Add(time.Hour), domain.RequestMeta{})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRotateRefreshToken_Race(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.StoreRefreshToken(ctx, &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    "u1",
		TokenHash: "shared",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	const callers = 16
	wins := make(chan bool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := r.RotateRefreshToken(ctx, "rt-1", "shared",
				"successor", time.Now().Add(time.Hour), domain.RequestMeta{})
			assert.NoError(t, err)
			if ok {
				wins <- true
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1, "compare-and-rotate admits a single winner")
}

func TestGetRefreshTokenByHash_SkipsRevoked(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.StoreRefreshToken(ctx, &domain.RefreshToken{
		ID: "rt-1", UserID: "u1", TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour),
	}))

	got, err := r.GetRefreshTokenByHash(ctx, "h")
	require.NoError(t, err)
	require.NotNil(t, got)

	_, err = r.RevokeRefreshTokenByHash(ctx, "h")
	require.NoError(t, err)

	got, err = r.GetRefreshTokenByHash(ctx, "h")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteOldestByUserID(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"rt-old", "rt-mid", "rt-new"} {
		require.NoError(t, r.StoreRefreshToken(ctx, &domain.RefreshToken{
			ID:        id,
			UserID:    "u1",
			TokenHash: id + "-hash",
			ExpiresAt: base.Add(time.Hour),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	require.NoError(t, r.DeleteOldestByUserID(ctx, "u1", 2))

	active, err := r.GetActiveTokensByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, rt := range active {
		assert.NotEqual(t, "rt-old", rt.ID)
	}
}

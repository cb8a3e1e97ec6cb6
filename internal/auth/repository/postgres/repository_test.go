package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
	repo "github.com/arunabh-a/Colbin-Assignment/internal/auth/repository/postgres"
	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
)

var userColumns = []string{
	"id", "email", "password_hash", "name", "bio", "role",
	"email_verified", "last_login_at", "created_at", "updated_at",
}

var tokenColumns = []string{
	"id", "user_id", "token_hash", "ip_address", "user_agent",
	"expires_at", "created_at", "revoked",
}

func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	userEmail := "test@example.com"

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(userEmail).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow("user-123", userEmail, "hash", "Test", "", "user",
					false, (*time.Time)(nil), time.Now(), time.Now()))

		user, err := r.GetByEmail(ctx, userEmail)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
		assert.Equal(t, userEmail, user.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(userEmail).
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByEmail(ctx, userEmail)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(userEmail).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, userEmail)
		assert.Error(t, err)
	})
}

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	user := &domain.User{
		ID:           "user-123",
		Email:        "new@example.com",
		PasswordHash: "new-hash",
		Name:         "New",
		Role:         "user",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Email, user.PasswordHash, user.Name, user.Bio,
				user.Role, user.EmailVerified, user.VerificationTokenHash,
				user.CreatedAt, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.Create(ctx, user))
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Email, user.PasswordHash, user.Name, user.Bio,
				user.Role, user.EmailVerified, user.VerificationTokenHash,
				user.CreatedAt, user.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := r.Create(ctx, user)
		assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	})
}

func TestStoreRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	rt := &domain.RefreshToken{
		ID:        "rt-123",
		UserID:    "user-123",
		TokenHash: "digest",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO refresh_tokens").
			WithArgs(rt.ID, rt.UserID, rt.TokenHash, rt.IPAddress, rt.UserAgent,
				rt.ExpiresAt, rt.CreatedAt, rt.Revoked).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.StoreRefreshToken(ctx, rt))
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO refresh_tokens").
			WithArgs(rt.ID, rt.UserID, rt.TokenHash, rt.IPAddress, rt.UserAgent,
				rt.ExpiresAt, rt.CreatedAt, rt.Revoked).
			WillReturnError(fmt.Errorf("db error"))

		assert.Error(t, r.StoreRefreshToken(ctx, rt))
	})
}

func TestGetRefreshTokenByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, token_hash").
			WithArgs("digest").
			WillReturnRows(pgxmock.NewRows(tokenColumns).
				AddRow("rt-123", "user-123", "digest", "1.2.3.4", "agent",
					time.Now().Add(time.Hour), time.Now(), false))

		rt, err := r.GetRefreshTokenByHash(ctx, "digest")
		require.NoError(t, err)
		assert.Equal(t, "rt-123", rt.ID)
		assert.False(t, rt.Revoked)
	})

	t.Run("no active record", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, token_hash").
			WithArgs("unknown").
			WillReturnError(pgx.ErrNoRows)

		rt, err := r.GetRefreshTokenByHash(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, rt)
	})
}

// TestRotateRefreshToken pins down the conditional-write contract: the result
// reports whether the single UPDATE matched the expected (id, hash, revoked)
// state.
func TestRotateRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)
	meta := domain.RequestMeta{IPAddress: "1.2.3.4", UserAgent: "agent"}

	t.Run("rotation lands", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rt-123", "old-hash", "new-hash", expiresAt, meta.IPAddress, meta.UserAgent).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		rotated, err := r.RotateRefreshToken(ctx, "rt-123", "old-hash", "new-hash", expiresAt, meta)
		require.NoError(t, err)
		assert.True(t, rotated)
	})

	t.Run("lost the race", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rt-123", "old-hash", "new-hash", expiresAt, meta.IPAddress, meta.UserAgent).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		rotated, err := r.RotateRefreshToken(ctx, "rt-123", "old-hash", "new-hash", expiresAt, meta)
		require.NoError(t, err)
		assert.False(t, rotated)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rt-123", "old-hash", "new-hash", expiresAt, meta.IPAddress, meta.UserAgent).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.RotateRefreshToken(ctx, "rt-123", "old-hash", "new-hash", expiresAt, meta)
		assert.Error(t, err)
	})
}

func TestRevokeRefreshTokenByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("revokes active record", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("digest").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		revoked, err := r.RevokeRefreshTokenByHash(ctx, "digest")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("nothing to revoke", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("digest").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		revoked, err := r.RevokeRefreshTokenByHash(ctx, "digest")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestRecordLoginAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectExec("INSERT INTO login_attempts").
		WithArgs("test@example.com", "1.2.3.4", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, r.RecordLoginAttempt(context.Background(), "test@example.com", "1.2.3.4", false))
}

func TestGetActiveTokensByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT id, user_id, token_hash").
		WithArgs("user-123").
		WillReturnRows(pgxmock.NewRows(tokenColumns).
			AddRow("rt-1", "user-123", "h1", "", "", time.Now().Add(time.Hour), time.Now(), false).
			AddRow("rt-2", "user-123", "h2", "", "", time.Now().Add(time.Hour), time.Now(), false))

	tokens, err := r.GetActiveTokensByUserID(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestVerifyEmailByTokenHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("digest matches a user", func(t *testing.T) {
		mock.ExpectExec("UPDATE users").
			WithArgs("digest").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		verified, err := r.VerifyEmailByTokenHash(ctx, "digest")
		require.NoError(t, err)
		assert.True(t, verified)
	})

	t.Run("already consumed", func(t *testing.T) {
		mock.ExpectExec("UPDATE users").
			WithArgs("digest").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		verified, err := r.VerifyEmailByTokenHash(ctx, "digest")
		require.NoError(t, err)
		assert.False(t, verified)
	})
}

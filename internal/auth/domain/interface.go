package domain

import (
	"context"
	"time"
)

// UserRepository is the credential store. All refresh-token mutations are
// conditional writes keyed on the record's current hash and revoked flag, so
// concurrent callers race on the store's atomicity rather than on
// read-then-write sequences in the service.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdateProfile(ctx context.Context, userID, name, bio string) error
	UpdateRole(ctx context.Context, userID, role string) error
	// VerifyEmailByTokenHash flips email_verified on the user holding the
	// digest and clears it, in one conditional write. It reports whether a
	// user matched.
	VerifyEmailByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	ListUsers(ctx context.Context) ([]*User, error)

	StoreRefreshToken(ctx context.Context, rt *RefreshToken) error
	// GetRefreshTokenByHash returns the non-revoked record matching the
	// digest, or nil when no such record exists.
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RotateRefreshToken atomically replaces the record's hash and expiry,
	// conditional on the record still carrying oldHash and not being revoked.
	// It reports whether the write landed; false means the caller lost the
	// race or presented an already-rotated secret.
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time, meta RequestMeta) (bool, error)
	// RevokeRefreshTokenByHash revokes the matching non-revoked record and
	// reports whether a record was revoked. Finding nothing is not an error.
	RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID string) error
	GetActiveTokensByUserID(ctx context.Context, userID string) ([]*RefreshToken, error)
	DeleteOldestByUserID(ctx context.Context, userID string, keep int) error

	RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error
}

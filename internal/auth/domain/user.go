package domain

import "time"

type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	Bio           string
	Role          string
	EmailVerified bool
	// Digest of the outstanding email-verification secret, empty once
	// verified or when none is pending.
	VerificationTokenHash string
	LastLoginAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RefreshToken is the persisted record of one issued refresh secret. Only the
// sha256 digest of the raw secret is stored; the raw secret lives client-side.
// A chain is rotated in place: the row keeps its id while TokenHash and
// ExpiresAt are replaced on every successful refresh.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

func (rt *RefreshToken) Active(now time.Time) bool {
	return !rt.Revoked && now.Before(rt.ExpiresAt)
}

type LoginAttempt struct {
	ID          string
	Email       string
	IPAddress   string
	AttemptTime time.Time
	Successful  bool
}

// RequestMeta carries transport-level request attributes into the service
// layer explicitly, rather than having services reach into the request.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Identity is what the request gate attaches to an authenticated request.
type Identity struct {
	UserID string
	Role   string
}

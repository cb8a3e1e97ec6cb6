// Package memory provides an in-process UserRepository used by tests. It
// mirrors the postgres repository's conditional-write semantics: rotation and
// revocation mutate a record only while it still matches the expected hash
// and revoked state, under a single lock, so concurrent callers observe the
// same win/lose outcomes as against the real store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
)

type MemoryRepository struct {
	mu       sync.Mutex
	users    map[string]*domain.User         // keyed by id
	byEmail  map[string]string               // email -> id
	tokens   map[string]*domain.RefreshToken // keyed by id
	attempts []domain.LoginAttempt
}

var _ domain.UserRepository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]*domain.RefreshToken),
	}
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return copyUser(r.users[id]), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(user), nil
}

func (r *MemoryRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return autherror.ErrEmailAlreadyInUse
	}
	r.users[user.ID] = copyUser(user)
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[userID]; ok {
		t := at
		user.LastLoginAt = &t
		user.UpdatedAt = at
	}
	return nil
}

func (r *MemoryRepository) UpdateProfile(_ context.Context, userID, name, bio string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[userID]; ok {
		user.Name = name
		user.Bio = bio
		user.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryRepository) UpdateRole(_ context.Context, userID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[userID]; ok {
		user.Role = role
		user.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryRepository) VerifyEmailByTokenHash(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tokenHash == "" {
		return false, nil
	}
	for _, user := range r.users {
		if user.VerificationTokenHash == tokenHash {
			user.EmailVerified = true
			user.VerificationTokenHash = ""
			user.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *MemoryRepository) StoreRefreshToken(_ context.Context, rt *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rt
	r.tokens[rt.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.tokens {
		if rt.TokenHash == tokenHash && !rt.Revoked {
			copied := *rt
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) RotateRefreshToken(_ context.Context, id, oldHash, newHash string,
	expiresAt time.Time, meta domain.RequestMeta) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[id]
	if !ok || rt.Revoked || rt.TokenHash != oldHash {
		return false, nil
	}

	rt.TokenHash = newHash
	rt.ExpiresAt = expiresAt
	rt.IPAddress = meta.IPAddress
	rt.UserAgent = meta.UserAgent
	rt.CreatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) RevokeRefreshTokenByHash(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.tokens {
		if rt.TokenHash == tokenHash && !rt.Revoked {
			rt.Revoked = true
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) RevokeAllByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func (r *MemoryRepository) GetActiveTokensByUserID(_ context.Context, userID string) ([]*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var tokens []*domain.RefreshToken
	for _, rt := range r.tokens {
		if rt.UserID == userID && rt.Active(now) {
			copied := *rt
			tokens = append(tokens, &copied)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.After(tokens[j].CreatedAt) })
	return tokens, nil
}

func (r *MemoryRepository) DeleteOldestByUserID(_ context.Context, userID string, keep int) error {
	active, err := r.GetActiveTokensByUserID(context.Background(), userID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := keep; i < len(active); i++ {
		if rt, ok := r.tokens[active[i].ID]; ok {
			rt.Revoked = true
		}
	}
	return nil
}

func (r *MemoryRepository) RecordLoginAttempt(_ context.Context, email, ip string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts = append(r.attempts, domain.LoginAttempt{
		ID:          uuid.New().String(),
		Email:       email,
		IPAddress:   ip,
		AttemptTime: time.Now(),
		Successful:  success,
	})
	return nil
}

// LoginAttempts exposes the audit trail for assertions.
func (r *MemoryRepository) LoginAttempts() []domain.LoginAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.LoginAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

func copyUser(u *domain.User) *domain.User {
	copied := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		copied.LastLoginAt = &t
	}
	return &copied
}

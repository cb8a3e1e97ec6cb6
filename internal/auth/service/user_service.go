package service

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/arunabh-a/Colbin-Assignment/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_login_limiter.go -package=mocks github.com/arunabh-a/Colbin-Assignment/internal/auth/service LoginLimiter

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arunabh-a/Colbin-Assignment/config"
	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
	"github.com/arunabh-a/Colbin-Assignment/internal/auth/dto"
	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
	"github.com/arunabh-a/Colbin-Assignment/internal/logger"
	authconstant "github.com/arunabh-a/Colbin-Assignment/pkg/constant"
)

// LoginLimiter throttles credential-guessing. Allow reports whether another
// attempt is permitted for the key within the current window.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Mailer delivers the out-of-band verification message. Delivery is best
// effort and never blocks session issuance.
type Mailer interface {
	SendVerification(ctx context.Context, email, token string) error
}

type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
	limiter      LoginLimiter
	mailer       Mailer
	log          *logger.Logger
	refreshTTL   time.Duration
	bcryptCost   int
	maxActive    int
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator, limiter LoginLimiter,
	mailer Mailer, log *logger.Logger, cfg *config.Config) *UserService {
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
		limiter:      limiter,
		mailer:       mailer,
		log:          log,
		refreshTTL:   time.Duration(cfg.RefreshTokenTTLSec) * time.Second,
		bcryptCost:   cfg.BcryptCost,
		maxActive:    cfg.MaxActiveTokens,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, *dto.TokenPair, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, autherror.ErrInvalidEmail
	}
	if err := checkPasswordPolicy(input.Password); err != nil {
		return nil, nil, err
	}

	existingUser, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existingUser != nil {
		return nil, nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	verification, err := newOpaqueSecret()
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:                    uuid.New().String(),
		Email:                 email,
		PasswordHash:          string(hashedPassword),
		Name:                  input.Name,
		Role:                  authconstant.DefaultUserRole,
		VerificationTokenHash: hashSecret(verification),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// Create enforces the unique email constraint, so two concurrent
	// registrations for the same address cannot both pass the pre-check and
	// both land.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, user.Email, verification); err != nil {
			s.log.Warn("verification mail delivery failed", "user_id", user.ID, "error", err)
		}
	}

	pair, err := s.issuePair(ctx, user, domain.RequestMeta{IPAddress: input.IPAddress, UserAgent: input.UserAgent})
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*domain.User, *dto.TokenPair, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, autherror.ErrInvalidCredentials
	}

	limiterKey := email + "|" + input.IPAddress
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, limiterKey)
		if err != nil {
			return nil, nil, err
		}
		if !allowed {
			s.log.Warn("login throttled", "email", email, "ip", input.IPAddress)
			return nil, nil, autherror.ErrTooManyLoginAttempts
		}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		_ = s.repo.RecordLoginAttempt(ctx, email, input.IPAddress, false)
		return nil, nil, autherror.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.LastLoginAt = &now

	if err := s.repo.RecordLoginAttempt(ctx, email, input.IPAddress, true); err != nil {
		return nil, nil, err
	}
	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, limiterKey)
	}

	pair, err := s.issuePair(ctx, user, domain.RequestMeta{IPAddress: input.IPAddress, UserAgent: input.UserAgent})
	if err != nil {
		return nil, nil, err
	}

	// Logging in starts an independent chain; other sessions stay valid, but
	// the oldest chains beyond the cap are retired.
	if err := s.repo.DeleteOldestByUserID(ctx, user.ID, s.maxActive); err != nil {
		s.log.Warn("failed to trim refresh tokens", "user_id", user.ID, "error", err)
	}

	return user, pair, nil
}

// Refresh rotates a refresh chain. The rotation itself is a single
// conditional write keyed on the record's current hash and revoked flag; of
// two concurrent calls presenting the same secret, exactly one lands. The
// loser, and any replay of an already-rotated secret, gets the same
// not-found error the caller would see for a token that never existed.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenPair, error) {
	if input.RefreshSecret == "" {
		return nil, autherror.ErrRefreshTokenNotFound
	}

	oldHash := hashSecret(input.RefreshSecret)

	token, err := s.repo.GetRefreshTokenByHash(ctx, oldHash)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, autherror.ErrRefreshTokenNotFound
	}

	now := time.Now()
	if !now.Before(token.ExpiresAt) {
		if _, err := s.repo.RevokeRefreshTokenByHash(ctx, oldHash); err != nil {
			return nil, err
		}
		return nil, autherror.ErrRefreshTokenExpired
	}

	newSecret, err := newOpaqueSecret()
	if err != nil {
		return nil, err
	}
	newHash := hashSecret(newSecret)
	meta := domain.RequestMeta{IPAddress: input.IPAddress, UserAgent: input.UserAgent}

	rotated, err := s.repo.RotateRefreshToken(ctx, token.ID, oldHash, newHash, now.Add(s.refreshTTL), meta)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Replay signal: the record changed between lookup and write, so
		// someone else already consumed this secret.
		s.log.Warn("refresh replay detected",
			"event", "refresh_replay",
			"user_id", token.UserID,
			"token_hash_prefix", oldHash[:8],
			"ip", input.IPAddress,
			"user_agent", input.UserAgent,
		)
		return nil, autherror.ErrRefreshTokenNotFound
	}

	user, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrRefreshTokenNotFound
	}

	accessToken, expiresAt, err := s.tokenService.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &dto.TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt.Unix(),
		RefreshSecret:   newSecret,
	}, nil
}

// Logout revokes the chain matching the presented secret. Unknown or
// already-revoked secrets are not an error; logout is idempotent.
func (s *UserService) Logout(ctx context.Context, refreshSecret string) error {
	if refreshSecret == "" {
		return nil
	}
	_, err := s.repo.RevokeRefreshTokenByHash(ctx, hashSecret(refreshSecret))
	return err
}

// VerifyEmail consumes a verification secret delivered out of band. The
// secret is single use: the matching write clears the stored digest, so a
// second presentation finds nothing.
func (s *UserService) VerifyEmail(ctx context.Context, secret string) error {
	if secret == "" {
		return autherror.ErrVerificationTokenInvalid
	}
	verified, err := s.repo.VerifyEmailByTokenHash(ctx, hashSecret(secret))
	if err != nil {
		return err
	}
	if !verified {
		return autherror.ErrVerificationTokenInvalid
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, name, bio string) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, autherror.ErrInvalidInput
	}
	if err := s.repo.UpdateProfile(ctx, userID, name, bio); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) UpdateUserRole(ctx context.Context, userID, role string) error {
	if role != authconstant.DefaultUserRole && role != authconstant.AdminRole {
		return autherror.ErrInvalidInput
	}
	return s.repo.UpdateRole(ctx, userID, role)
}

func (s *UserService) ListSessions(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	return s.repo.GetActiveTokensByUserID(ctx, userID)
}

// ForceLogout revokes every active chain the user owns.
func (s *UserService) ForceLogout(ctx context.Context, userID string) error {
	return s.repo.RevokeAllByUserID(ctx, userID)
}

func (s *UserService) issuePair(ctx context.Context, user *domain.User, meta domain.RequestMeta) (*dto.TokenPair, error) {
	accessToken, expiresAt, err := s.tokenService.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshSecret, err := newOpaqueSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rt := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hashSecret(refreshSecret),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
		Revoked:   false,
	}
	if err := s.repo.StoreRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt.Unix(),
		RefreshSecret:   refreshSecret,
	}, nil
}

func newOpaqueSecret() (string, error) {
	buf := make([]byte, authconstant.RefreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", autherror.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", autherror.ErrInvalidEmail
	}
	return email, nil
}

func checkPasswordPolicy(password string) error {
	if len(password) < authconstant.MinPasswordLength {
		return autherror.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return autherror.ErrWeakPassword
	}
	return nil
}

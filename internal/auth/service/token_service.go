package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/arunabh-a/Colbin-Assignment/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
)

type TokenGenerator interface {
	Issue(userID, role string) (string, time.Time, error)
	Validate(tokenString string) (*JWTCustomClaims, error)
	AccessTokenTTL() time.Duration
}

// TokenService signs and validates access tokens. It is stateless; the secret
// is fixed for the process lifetime (no runtime key rotation). Expiry is
// judged against local wall-clock time, clock skew between processes is not
// compensated.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}
}

func (ts *TokenService) Issue(userID, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.accessTTL)

	claims := JWTCustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, expiresAt, nil
}

// Validate parses and verifies an access token. The parser verifies the
// signature before any claim check, so a forged token is rejected as such even
// when its encoded expiry has also passed.
func (ts *TokenService) Validate(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, autherror.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, autherror.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, autherror.ErrTokenExpired
	default:
		return nil, autherror.ErrTokenMalformed
	}

	if !token.Valid {
		return nil, autherror.ErrTokenSignatureInvalid
	}

	return claims, nil
}

func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTTL
}

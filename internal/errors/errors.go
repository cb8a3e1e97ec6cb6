package errors

import (
	"errors"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrWeakPassword         = errors.New("password does not meet the minimum strength policy")
	ErrEmailAlreadyInUse    = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrTooManyLoginAttempts = errors.New("too many failed login attempts")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")

	ErrTokenMalformed        = errors.New("access token malformed")
	ErrTokenSignatureInvalid = errors.New("access token signature invalid")
	ErrTokenExpired          = errors.New("access token expired")

	ErrUserNotFound             = errors.New("user not found")
	ErrVerificationTokenInvalid = errors.New("verification token invalid")
)

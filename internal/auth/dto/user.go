package dto

import (
	"time"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
)

type UserOutput struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Bio           string     `json:"bio,omitempty"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Bio:           u.Bio,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type UpdateProfileInput struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type UpdateRoleInput struct {
	Role string `json:"role"`
}

type SessionOutput struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arunabh-a/Colbin-Assignment/config"
	"github.com/arunabh-a/Colbin-Assignment/internal/auth/dto"
	"github.com/arunabh-a/Colbin-Assignment/internal/auth/service"
	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
	authconstant "github.com/arunabh-a/Colbin-Assignment/pkg/constant"
)

type AuthHandler struct {
	userService  *service.UserService
	tokenService service.TokenGenerator
	cfg          *config.Config
}

func NewAuthHandler(userService *service.UserService, tokenService service.TokenGenerator, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		cfg:          cfg,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	user, pair, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return h.mapError(c, err)
	}

	h.setSessionCookies(c, pair)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":              dto.NewUserOutput(user),
		"access_token":      pair.AccessToken,
		"access_expires_at": pair.AccessExpiresAt,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	user, pair, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return h.mapError(c, err)
	}

	h.setSessionCookies(c, pair)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":              dto.NewUserOutput(user),
		"access_token":      pair.AccessToken,
		"access_expires_at": pair.AccessExpiresAt,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	input := dto.RefreshInput{
		RefreshSecret: c.Cookies(authconstant.RefreshTokenCookie),
		IPAddress:     c.IP(),
		UserAgent:     string(c.Request().Header.UserAgent()),
	}

	pair, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		h.clearSessionCookies(c)
		return h.mapError(c, err)
	}

	h.setSessionCookies(c, pair)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token":      pair.AccessToken,
		"access_expires_at": pair.AccessExpiresAt,
	})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input dto.VerifyEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.VerifyEmail(c.Context(), input.Token); err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "email verified"})
}

// Logout always answers 200 so clients can clear state unconditionally.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.userService.Logout(c.Context(), c.Cookies(authconstant.RefreshTokenCookie)); err != nil {
		return h.mapError(c, err)
	}

	h.clearSessionCookies(c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity := IdentityFromCtx(c)

	user, err := h.userService.GetProfile(c.Context(), identity.UserID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	identity := IdentityFromCtx(c)

	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.UpdateProfile(c.Context(), identity.UserID, input.Name, input.Bio)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.NewUserOutput(user))
}

func (h *AuthHandler) GetAllUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.Context())
	if err != nil {
		return h.mapError(c, err)
	}

	out := make([]dto.UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserOutput(u))
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) UpdateUserRole(c *fiber.Ctx) error {
	var input dto.UpdateRoleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.UpdateUserRole(c.Context(), c.Params("id"), input.Role); err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "role updated"})
}

func (h *AuthHandler) GetUserSessions(c *fiber.Ctx) error {
	sessions, err := h.userService.ListSessions(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}

	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, rt := range sessions {
		out = append(out, dto.SessionOutput{
			ID:        rt.ID,
			IPAddress: rt.IPAddress,
			UserAgent: rt.UserAgent,
			CreatedAt: rt.CreatedAt,
			ExpiresAt: rt.ExpiresAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	if err := h.userService.ForceLogout(c.Context(), c.Params("id")); err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "sessions revoked"})
}

// mapError is the only place service errors become HTTP statuses. Refresh
// failures collapse onto 401 without detail, replay included.
func (h *AuthHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, autherror.ErrInvalidInput),
		errors.Is(err, autherror.ErrInvalidEmail),
		errors.Is(err, autherror.ErrWeakPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrTooManyLoginAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrRefreshTokenNotFound),
		errors.Is(err, autherror.ErrRefreshTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid refresh token"})
	case errors.Is(err, autherror.ErrVerificationTokenInvalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, pair *dto.TokenPair) {
	secure := h.cfg.IsProduction()

	c.Cookie(&fiber.Cookie{
		Name:     authconstant.AccessTokenCookie,
		Value:    pair.AccessToken,
		Expires:  time.Unix(pair.AccessExpiresAt, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     authconstant.RefreshTokenCookie,
		Value:    pair.RefreshSecret,
		Expires:  time.Now().Add(time.Duration(h.cfg.RefreshTokenTTLSec) * time.Second),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     authconstant.RefreshCookiePath,
	})
}

func (h *AuthHandler) clearSessionCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)

	c.Cookie(&fiber.Cookie{
		Name:     authconstant.AccessTokenCookie,
		Value:    "",
		Expires:  expired,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     authconstant.RefreshTokenCookie,
		Value:    "",
		Expires:  expired,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     authconstant.RefreshCookiePath,
	})
}

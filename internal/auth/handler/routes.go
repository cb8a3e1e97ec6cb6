package handler

import (
	"github.com/gofiber/fiber/v2"

	authconstant "github.com/arunabh-a/Colbin-Assignment/pkg/constant"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Post("/api/v1/register", h.Register)
	app.Post("/api/v1/login", h.Login)
	app.Post("/api/v1/refresh", h.Refresh)
	app.Post("/api/v1/verify", h.VerifyEmail)
	app.Delete("/api/v1/session", h.Logout)

	app.Get("/api/v1/me", h.RequireAuth(), h.Me)
	app.Put("/api/v1/me", h.RequireAuth(), h.UpdateMe)

	// Admin-only endpoints
	admin := app.Group("/api/v1/admin", h.RequireAuth(), h.RequireRole(authconstant.AdminRole))
	admin.Get("/users", h.GetAllUsers)
	admin.Patch("/user/:id/role", h.UpdateUserRole)
	admin.Get("/user/:id/sessions", h.GetUserSessions)
	admin.Delete("/user/:id/sessions", h.ForceLogout)
}

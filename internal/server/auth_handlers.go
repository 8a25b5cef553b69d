package server

import (
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles new account creation.
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	s.setRefreshCookie(c, result.Tokens.RefreshToken)
	return models.RespondWithData(c, fiber.StatusCreated, "Account created", result)
}

// Login handles credential authentication.
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	s.setRefreshCookie(c, result.Tokens.RefreshToken)
	return models.RespondWithData(c, fiber.StatusOK, "Logged in", result)
}

// refreshRequest is the body fallback for clients that do not carry the
// refresh token cookie.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the presented refresh token for a fresh pair.
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid request body"))
		}
	}

	pair, err := s.authService.Refresh(c.UserContext(), refreshTokenFrom(c, req.RefreshToken))
	if err != nil {
		s.clearRefreshCookie(c)
		return models.RespondWithError(c, err)
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	return models.RespondWithData(c, fiber.StatusOK, "Token refreshed", pair)
}

// Logout revokes the presented session.
func (s *Server) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid request body"))
		}
	}

	userID := middleware.CurrentUserID(c)
	if err := s.authService.Logout(c.UserContext(), userID, refreshTokenFrom(c, req.RefreshToken)); err != nil {
		return models.RespondWithError(c, err)
	}

	s.clearRefreshCookie(c)
	return models.RespondWithData(c, fiber.StatusOK, "Logged out", nil)
}

// LogoutAll revokes every session for the caller.
func (s *Server) LogoutAll(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	if err := s.authService.LogoutAll(c.UserContext(), userID); err != nil {
		return models.RespondWithError(c, err)
	}

	s.clearRefreshCookie(c)
	return models.RespondWithData(c, fiber.StatusOK, "Logged out everywhere", nil)
}

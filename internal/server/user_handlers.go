package server

import (
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the caller's own profile.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Profile retrieved", user)
}

type updateProfileRequest struct {
	Name   string  `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

// UpdateMyProfile edits the caller's profile fields.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: middleware.CurrentUserID(c),
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Profile updated", user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangeMyPassword rotates the caller's password and revokes every session.
func (s *Server) ChangeMyPassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	err := s.userService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:          middleware.CurrentUserID(c),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	s.clearRefreshCookie(c)
	return models.RespondWithData(c, fiber.StatusOK, "Password changed, please log in again", nil)
}

// GetMyStats aggregates the caller's authored ideas.
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	stats, err := s.userService.Stats(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Stats retrieved", stats)
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteMyAccount soft-deletes the caller's account after a password check.
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	var req deleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.DeleteAccount(c.UserContext(),
		middleware.CurrentUserID(c), req.Password); err != nil {
		return models.RespondWithError(c, err)
	}

	s.clearRefreshCookie(c)
	return models.RespondWithData(c, fiber.StatusOK, "Account deleted", nil)
}

// SearchUsers finds active users by name or email fragment.
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	result, err := s.userService.SearchUsers(c.UserContext(), c.Query("q"), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Users retrieved", result)
}

// GetUserProfile returns another user's public profile.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetPublicProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Profile retrieved", profile)
}

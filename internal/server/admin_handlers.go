package server

import (
	"strconv"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPlatformStats returns the admin dashboard headline numbers.
func (s *Server) GetPlatformStats(c *fiber.Ctx) error {
	stats, err := s.adminService.Stats(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Stats retrieved", stats)
}

// GetPlatformAnalytics returns the trailing-30-day activity charts.
func (s *Server) GetPlatformAnalytics(c *fiber.Ctx) error {
	analytics, err := s.adminService.Analytics(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Analytics retrieved", analytics)
}

// AdminListUsers lists users for the admin panel with role/status filters.
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	in := service.ListUsersInput{
		Role:           models.Role(c.Query("role")),
		Search:         c.Query("q"),
		IncludeDeleted: c.QueryBool("include_deleted"),
		Page:           parsePage(c),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid active filter"))
		}
		in.Active = &active
	}

	result, err := s.adminService.ListUsers(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Users retrieved", result)
}

// AdminGetUser returns one user, soft-deleted included.
func (s *Server) AdminGetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.adminService.GetUser(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "User retrieved", user)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// AdminUpdateUserRole changes a user's role.
func (s *Server) AdminUpdateUserRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.adminService.UpdateUserRole(c.UserContext(),
		middleware.CurrentUserID(c), id, models.Role(req.Role))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Role updated", user)
}

// AdminToggleUserStatus flips a user's active flag.
func (s *Server) AdminToggleUserStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.adminService.ToggleUserStatus(c.UserContext(),
		middleware.CurrentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	message := "User deactivated"
	if user.IsActive {
		message = "User activated"
	}
	return models.RespondWithData(c, fiber.StatusOK, message, user)
}

// AdminDeleteUser soft-deletes an account on a user's behalf.
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.adminService.DeleteUser(c.UserContext(),
		middleware.CurrentUserID(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "User deleted", nil)
}

// GetModerationQueue lists the newest ideas, private ones included.
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	result, err := s.adminService.ModerationQueue(c.UserContext(), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Moderation queue retrieved", result)
}

// AdminCleanupLikes removes anonymous likes past the retention window. The
// jobs runner does this on a schedule; this endpoint triggers it on demand.
func (s *Server) AdminCleanupLikes(c *fiber.Ctx) error {
	removed, err := s.likeService.CleanupAnonymous(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Anonymous likes cleaned up", fiber.Map{
		"removed": removed,
	})
}

// AdminRecomputeTrending recomputes trending scores on demand.
func (s *Server) AdminRecomputeTrending(c *fiber.Ctx) error {
	updated, err := s.scorer.UpdateScores(c.UserContext(), time.Now())
	if err != nil {
		return models.RespondWithError(c, err)
	}

	s.cache.Delete(c.UserContext(), cache.TrendingKey())
	return models.RespondWithData(c, fiber.StatusOK, "Trending scores recomputed", fiber.Map{
		"updated": updated,
	})
}

package server

import (
	"ideanest/internal/middleware"
	"ideanest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike flips the caller's like on an idea. One identity, one like; the
// same request undoes it.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	liker, err := requesterIdentity(c)
	if err != nil {
		return nil
	}

	result, err := s.likeService.Toggle(c.UserContext(), id, liker,
		c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	message := "Idea unliked"
	if result.Liked {
		message = "Idea liked"
	}
	return models.RespondWithData(c, fiber.StatusOK, message, result)
}

// GetLikeStatus reports whether the caller currently likes the idea.
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	liker, err := requesterIdentity(c)
	if err != nil {
		return nil
	}

	liked, err := s.likeService.Status(c.UserContext(), id, liker)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Like status retrieved", fiber.Map{
		"liked": liked,
	})
}

// GetLikeCount returns the idea's like count.
func (s *Server) GetLikeCount(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.likeService.Count(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Like count retrieved", fiber.Map{
		"like_count": count,
	})
}

// GetMyLikedIdeas lists the ideas the caller liked, most recent first.
func (s *Server) GetMyLikedIdeas(c *fiber.Ctx) error {
	result, err := s.likeService.LikedIdeas(c.UserContext(),
		middleware.CurrentUserID(c), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Liked ideas retrieved", result)
}

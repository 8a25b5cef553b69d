package server

import (
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createIdeaRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	IsPublic *bool    `json:"is_public"`
}

// CreateIdea handles idea submission from both authenticated users and
// anonymous visitors.
func (s *Server) CreateIdea(c *fiber.Ctx) error {
	var req createIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	submitter, err := requesterIdentity(c)
	if err != nil {
		return nil
	}

	idea, err := s.ideaService.CreateIdea(c.UserContext(), service.CreateIdeaInput{
		Submitter: submitter,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		IsPublic:  req.IsPublic,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, "Idea created", idea)
}

// GetIdeas lists public ideas with sorting, tag and text filters.
func (s *Server) GetIdeas(c *fiber.Ctx) error {
	result, err := s.ideaService.ListIdeas(c.UserContext(), service.ListIdeasInput{
		Viewer: viewerIdentity(c),
		Sort:   repository.IdeaSort(c.Query("sort")),
		Tag:    c.Query("tag"),
		Search: c.Query("q"),
		Page:   parsePage(c),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Ideas retrieved", result)
}

// GetIdea returns one idea and counts the view.
func (s *Server) GetIdea(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	idea, err := s.ideaService.GetIdea(c.UserContext(), id, viewerIdentity(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Idea retrieved", idea)
}

// GetTrendingIdeas returns the trending leaderboard.
func (s *Server) GetTrendingIdeas(c *fiber.Ctx) error {
	ideas, err := s.ideaService.Trending(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Trending ideas retrieved", ideas)
}

// GetTopIdeas lists the most-liked ideas inside a timeframe.
func (s *Server) GetTopIdeas(c *fiber.Ctx) error {
	result, err := s.ideaService.TopIdeas(c.UserContext(), c.Query("timeframe"), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Top ideas retrieved", result)
}

type updateIdeaRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	IsPublic *bool    `json:"is_public"`
}

// UpdateIdea edits an idea; the author or a moderator only.
func (s *Server) UpdateIdea(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updateIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	idea, err := s.ideaService.UpdateIdea(c.UserContext(), service.UpdateIdeaInput{
		UserID:   middleware.CurrentUserID(c),
		IdeaID:   id,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Idea updated", idea)
}

// DeleteIdea removes an idea; the author or a moderator only.
func (s *Server) DeleteIdea(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.ideaService.DeleteIdea(c.UserContext(), middleware.CurrentUserID(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Idea deleted", nil)
}

// GetUserIdeas lists a user's authored ideas. Owners see their private ideas.
func (s *Server) GetUserIdeas(c *fiber.Ctx) error {
	authorID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.ideaService.UserIdeas(c.UserContext(), authorID, viewerIdentity(c), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Ideas retrieved", result)
}

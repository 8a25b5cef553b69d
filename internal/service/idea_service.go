package service

import (
	"context"
	"strings"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/identity"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/validation"
)

// duplicateTitleWindow is how long an identity is blocked from resubmitting an
// idea with the exact same title.
const duplicateTitleWindow = time.Hour

// trendingPageSize caps the trending leaderboard.
const trendingPageSize = 20

// IdeaService handles idea submission, listing and ownership-gated mutation.
type IdeaService struct {
	ideaRepo    repository.IdeaRepository
	cache       *cache.Cache
	canModerate func(ctx context.Context, userID uint) (bool, error)
}

type CreateIdeaInput struct {
	Submitter identity.Identity
	Title     string
	Content   string
	Tags      []string
	IsPublic  *bool
	IP        string
	UserAgent string
}

type ListIdeasInput struct {
	Viewer identity.Identity
	Sort   repository.IdeaSort
	Tag    string
	Search string
	Page   models.PageParams
}

type UpdateIdeaInput struct {
	UserID   uint
	IdeaID   uint
	Title    string
	Content  string
	Tags     []string
	IsPublic *bool
}

func NewIdeaService(
	ideaRepo repository.IdeaRepository,
	c *cache.Cache,
	canModerate func(ctx context.Context, userID uint) (bool, error),
) *IdeaService {
	return &IdeaService{ideaRepo: ideaRepo, cache: c, canModerate: canModerate}
}

func (s *IdeaService) CreateIdea(ctx context.Context, in CreateIdeaInput) (*models.Idea, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)

	if err := validation.ValidateIdeaTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateIdeaContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	dup, err := s.ideaRepo.HasRecentWithTitle(ctx, title, in.Submitter, duplicateTitleWindow)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, models.NewConflictError("You already submitted an idea with this title recently")
	}

	idea := &models.Idea{
		Title:     title,
		Content:   content,
		Tags:      tags,
		IsPublic:  true,
		IPAddress: in.IP,
		UserAgent: in.UserAgent,
	}
	if in.IsPublic != nil {
		idea.IsPublic = *in.IsPublic
	}
	if in.Submitter.Authenticated() {
		uid := in.Submitter.UserID
		idea.AuthorID = &uid
	} else {
		fp := in.Submitter.Fingerprint
		idea.Fingerprint = &fp
	}

	if err := s.ideaRepo.Create(ctx, idea); err != nil {
		return nil, err
	}
	return s.ideaRepo.GetByID(ctx, idea.ID, in.Submitter)
}

func (s *IdeaService) ListIdeas(ctx context.Context, in ListIdeasInput) (*models.Paginated[*models.Idea], error) {
	sort := in.Sort
	if sort == "" {
		sort = repository.IdeaSortNew
	}
	if !repository.ValidIdeaSort(sort) {
		return nil, models.NewValidationError("Invalid sort; must be new, top or trending")
	}

	page := in.Page.Normalize()
	filter := repository.IdeaFilter{
		Sort:       sort,
		Tag:        strings.ToLower(strings.TrimSpace(in.Tag)),
		Search:     strings.TrimSpace(in.Search),
		PublicOnly: true,
	}

	ideas, total, err := s.ideaRepo.List(ctx, filter, in.Viewer, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Paginated[*models.Idea]{
		Items:      ideas,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

// GetIdea returns one idea and counts the view. Private ideas are visible only
// to their author and moderators.
func (s *IdeaService) GetIdea(ctx context.Context, id uint, viewer identity.Identity) (*models.Idea, error) {
	idea, err := s.ideaRepo.GetByID(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, models.NewNotFoundError("idea", id)
	}

	if !idea.IsPublic && !idea.OwnedBy(viewer.UserID) {
		allowed := false
		if viewer.Authenticated() && s.canModerate != nil {
			allowed, err = s.canModerate(ctx, viewer.UserID)
			if err != nil {
				return nil, err
			}
		}
		if !allowed {
			return nil, models.NewNotFoundError("idea", id)
		}
	}

	if err := s.ideaRepo.IncrementViewCount(ctx, id); err != nil {
		return nil, err
	}
	idea.ViewCount++
	return idea, nil
}

// Trending returns the cached leaderboard of currently-trending public ideas.
func (s *IdeaService) Trending(ctx context.Context) ([]*models.Idea, error) {
	var ideas []*models.Idea
	err := s.cache.Aside(ctx, cache.TrendingKey(), &ideas, cache.TrendingTTL, func() error {
		var fetchErr error
		ideas, fetchErr = s.ideaRepo.ListTrending(ctx, trendingPageSize)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return ideas, nil
}

// TopIdeas lists the most-liked public ideas inside a named timeframe.
func (s *IdeaService) TopIdeas(ctx context.Context, timeframe string, page models.PageParams) (*models.Paginated[*models.Idea], error) {
	var since time.Time
	switch timeframe {
	case "", "all":
		timeframe = "all"
	case "day":
		since = time.Now().Add(-24 * time.Hour)
	case "week":
		since = time.Now().AddDate(0, 0, -7)
	case "month":
		since = time.Now().AddDate(0, -1, 0)
	default:
		return nil, models.NewValidationError("Invalid timeframe; must be day, week, month or all")
	}

	page = page.Normalize()

	// Only the first page of each timeframe is cached; deeper pages are rare.
	if page.Page == 1 {
		var result models.Paginated[*models.Idea]
		err := s.cache.Aside(ctx, cache.TopIdeasKey(timeframe), &result, cache.TopIdeasTTL, func() error {
			ideas, total, fetchErr := s.ideaRepo.ListTop(ctx, since, page.Limit, page.Offset())
			if fetchErr != nil {
				return fetchErr
			}
			result = models.Paginated[*models.Idea]{
				Items:      ideas,
				Pagination: models.NewPageMeta(page, total),
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &result, nil
	}

	ideas, total, err := s.ideaRepo.ListTop(ctx, since, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Paginated[*models.Idea]{
		Items:      ideas,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

// UserIdeas lists a user's authored public ideas.
func (s *IdeaService) UserIdeas(ctx context.Context, authorID uint, viewer identity.Identity, page models.PageParams) (*models.Paginated[*models.Idea], error) {
	page = page.Normalize()
	filter := repository.IdeaFilter{
		Sort:       repository.IdeaSortNew,
		AuthorID:   authorID,
		PublicOnly: !viewer.Authenticated() || viewer.UserID != authorID,
	}
	ideas, total, err := s.ideaRepo.List(ctx, filter, viewer, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Paginated[*models.Idea]{
		Items:      ideas,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

func (s *IdeaService) UpdateIdea(ctx context.Context, in UpdateIdeaInput) (*models.Idea, error) {
	viewer := identity.Identity{UserID: in.UserID}
	idea, err := s.ideaRepo.GetByID(ctx, in.IdeaID, viewer)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, models.NewNotFoundError("idea", in.IdeaID)
	}
	if err := s.authorizeMutation(ctx, idea, in.UserID, "update"); err != nil {
		return nil, err
	}

	if in.Title != "" {
		title := strings.TrimSpace(in.Title)
		if err := validation.ValidateIdeaTitle(title); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		idea.Title = title
	}
	if in.Content != "" {
		content := strings.TrimSpace(in.Content)
		if err := validation.ValidateIdeaContent(content); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		idea.Content = content
	}
	if in.Tags != nil {
		tags, err := validation.NormalizeTags(in.Tags)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		idea.Tags = tags
	}
	if in.IsPublic != nil {
		idea.IsPublic = *in.IsPublic
	}

	if err := s.ideaRepo.Update(ctx, idea); err != nil {
		return nil, err
	}
	return s.ideaRepo.GetByID(ctx, idea.ID, viewer)
}

func (s *IdeaService) DeleteIdea(ctx context.Context, userID, ideaID uint) error {
	idea, err := s.ideaRepo.GetByID(ctx, ideaID, identity.Identity{UserID: userID})
	if err != nil {
		return err
	}
	if idea == nil {
		return models.NewNotFoundError("idea", ideaID)
	}
	if err := s.authorizeMutation(ctx, idea, userID, "delete"); err != nil {
		return err
	}
	return s.ideaRepo.Delete(ctx, ideaID)
}

// authorizeMutation allows the idea's author or a moderator. Anonymous ideas
// have no author, so only moderators can touch them.
func (s *IdeaService) authorizeMutation(ctx context.Context, idea *models.Idea, userID uint, action string) error {
	if idea.OwnedBy(userID) {
		return nil
	}
	if s.canModerate != nil {
		allowed, err := s.canModerate(ctx, userID)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
	}
	return models.NewForbiddenError("You can only " + action + " your own ideas")
}

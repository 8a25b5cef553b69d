package service

import (
	"context"
	"log/slog"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/identity"
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/token"
)

// AdminService handles platform administration: stats, user management and
// the moderation queue.
type AdminService struct {
	userRepo repository.UserRepository
	ideaRepo repository.IdeaRepository
	likeRepo repository.LikeRepository
	tokens   *token.Service
	cache    *cache.Cache
}

// PlatformStats is the admin dashboard headline.
type PlatformStats struct {
	TotalUsers  int64 `json:"total_users"`
	ActiveUsers int64 `json:"active_users"`
	TotalIdeas  int64 `json:"total_ideas"`
	TotalLikes  int64 `json:"total_likes"`
	UsersToday  int64 `json:"users_today"`
	IdeasToday  int64 `json:"ideas_today"`
	LikesToday  int64 `json:"likes_today"`
}

// PlatformAnalytics carries the admin activity charts.
type PlatformAnalytics struct {
	SignupsPerDay []repository.DailyCount `json:"signups_per_day"`
	IdeasPerDay   []repository.DailyCount `json:"ideas_per_day"`
	TopTags       []repository.TagCount   `json:"top_tags"`
}

type ListUsersInput struct {
	Role           models.Role
	Active         *bool
	Search         string
	IncludeDeleted bool
	Page           models.PageParams
}

func NewAdminService(
	userRepo repository.UserRepository,
	ideaRepo repository.IdeaRepository,
	likeRepo repository.LikeRepository,
	tokens *token.Service,
	c *cache.Cache,
) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		ideaRepo: ideaRepo,
		likeRepo: likeRepo,
		tokens:   tokens,
		cache:    c,
	}
}

// Stats returns the platform headline numbers, cache-aside.
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	err := s.cache.Aside(ctx, cache.AdminStatsKey(), &stats, cache.AdminStatsTTL, func() error {
		midnight := time.Now().Truncate(24 * time.Hour)

		counts := []struct {
			dest  *int64
			fetch func(context.Context) (int64, error)
		}{
			{&stats.TotalUsers, s.userRepo.CountAll},
			{&stats.ActiveUsers, s.userRepo.CountActive},
			{&stats.TotalIdeas, s.ideaRepo.CountAll},
			{&stats.TotalLikes, s.likeRepo.CountAll},
			{&stats.UsersToday, func(ctx context.Context) (int64, error) {
				return s.userRepo.CountCreatedSince(ctx, midnight)
			}},
			{&stats.IdeasToday, func(ctx context.Context) (int64, error) {
				return s.ideaRepo.CountCreatedSince(ctx, midnight)
			}},
			{&stats.LikesToday, func(ctx context.Context) (int64, error) {
				return s.likeRepo.CountCreatedSince(ctx, midnight)
			}},
		}
		for _, c := range counts {
			n, fetchErr := c.fetch(ctx)
			if fetchErr != nil {
				return fetchErr
			}
			*c.dest = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Analytics returns the trailing-30-day activity charts.
func (s *AdminService) Analytics(ctx context.Context) (*PlatformAnalytics, error) {
	const days = 30
	signups, err := s.userRepo.SignupsPerDay(ctx, days)
	if err != nil {
		return nil, err
	}
	ideas, err := s.ideaRepo.IdeasPerDay(ctx, days)
	if err != nil {
		return nil, err
	}
	tags, err := s.ideaRepo.TopTags(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &PlatformAnalytics{
		SignupsPerDay: signups,
		IdeasPerDay:   ideas,
		TopTags:       tags,
	}, nil
}

// ListUsers lists users for the admin panel; only this path may widen reads to
// soft-deleted accounts.
func (s *AdminService) ListUsers(ctx context.Context, in ListUsersInput) (*models.Paginated[*models.User], error) {
	if in.Role != "" && !models.ValidRole(in.Role) {
		return nil, models.NewValidationError("Invalid role filter")
	}

	page := in.Page.Normalize()
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Role:           in.Role,
		Active:         in.Active,
		Search:         in.Search,
		IncludeDeleted: in.IncludeDeleted,
	}, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Paginated[*models.User]{
		Items:      users,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

// GetUser returns one user for the admin panel, soft-deleted included.
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByIDIncludingDeleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", userID)
	}
	return user, nil
}

// UpdateUserRole changes a user's role. Admins cannot change their own role,
// so the platform always retains at least the acting admin.
func (s *AdminService) UpdateUserRole(ctx context.Context, actorID, userID uint, role models.Role) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, models.NewValidationError("Invalid role")
	}
	if actorID == userID {
		return nil, models.NewForbiddenError("You cannot change your own role")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", userID)
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user role updated",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("role", string(role)),
		slog.Uint64("actor_id", uint64(actorID)))
	return user, nil
}

// ToggleUserStatus flips a user's active flag. Deactivation revokes every
// session immediately.
func (s *AdminService) ToggleUserStatus(ctx context.Context, actorID, userID uint) (*models.User, error) {
	if actorID == userID {
		return nil, models.NewForbiddenError("You cannot deactivate your own account")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", userID)
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if !user.IsActive {
		if err := s.tokens.RevokeAll(ctx, userID); err != nil {
			return nil, err
		}
	}

	middleware.Logger.InfoContext(ctx, "user status toggled",
		slog.Uint64("user_id", uint64(userID)),
		slog.Bool("is_active", user.IsActive),
		slog.Uint64("actor_id", uint64(actorID)))
	return user, nil
}

// DeleteUser soft-deletes an account on a user's behalf and revokes sessions.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return models.NewForbiddenError("You cannot delete your own account here")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("user", userID)
	}

	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "user deleted by admin",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("actor_id", uint64(actorID)))
	return nil
}

// ModerationQueue lists the newest ideas, private ones included, for review.
func (s *AdminService) ModerationQueue(ctx context.Context, page models.PageParams) (*models.Paginated[*models.Idea], error) {
	page = page.Normalize()
	ideas, total, err := s.ideaRepo.List(ctx, repository.IdeaFilter{
		Sort: repository.IdeaSortNew,
	}, identity.Identity{}, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Paginated[*models.Idea]{
		Items:      ideas,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

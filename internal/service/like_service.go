package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/identity"
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/repository"
)

// anonymousLikeRetention is how long fingerprint likes are kept before the
// cleanup job reclaims them.
const anonymousLikeRetention = 90 * 24 * time.Hour

// LikeService handles like toggling and like-derived reads.
type LikeService struct {
	likeRepo repository.LikeRepository
	cache    *cache.Cache
}

// ToggleResult is the outcome of a like toggle.
type ToggleResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func NewLikeService(likeRepo repository.LikeRepository, c *cache.Cache) *LikeService {
	return &LikeService{likeRepo: likeRepo, cache: c}
}

// Toggle flips the caller's like on an idea.
func (s *LikeService) Toggle(ctx context.Context, ideaID uint, liker identity.Identity, ip, userAgent string) (*ToggleResult, error) {
	liked, count, err := s.likeRepo.Toggle(ctx, ideaID, liker, ip, userAgent)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			middleware.LikeToggles.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	outcome := "unliked"
	if liked {
		outcome = "liked"
	}
	middleware.LikeToggles.WithLabelValues(outcome).Inc()

	return &ToggleResult{Liked: liked, LikeCount: count}, nil
}

// Status reports whether the caller currently likes the idea.
func (s *LikeService) Status(ctx context.Context, ideaID uint, liker identity.Identity) (bool, error) {
	return s.likeRepo.Exists(ctx, ideaID, liker)
}

// Count returns the idea's like count, cache-aside.
func (s *LikeService) Count(ctx context.Context, ideaID uint) (int64, error) {
	var count int64
	err := s.cache.Aside(ctx, cache.LikeCountKey(ideaID), &count, cache.LikeCountTTL, func() error {
		var fetchErr error
		count, fetchErr = s.likeRepo.CountForIdea(ctx, ideaID)
		return fetchErr
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LikedIdeas lists the ideas the user liked, most recent first.
func (s *LikeService) LikedIdeas(ctx context.Context, userID uint, page models.PageParams) (*models.Paginated[*models.Idea], error) {
	page = page.Normalize()
	ideas, total, err := s.likeRepo.ListIdeasLikedBy(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Paginated[*models.Idea]{
		Items:      ideas,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

// CleanupAnonymous removes fingerprint likes older than the retention window,
// keeping idea counters in step. Run periodically by the jobs runner.
func (s *LikeService) CleanupAnonymous(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-anonymousLikeRetention)
	removed, err := s.likeRepo.DeleteAnonymousBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		middleware.Logger.InfoContext(ctx, "anonymous likes cleaned up",
			slog.Int64("removed", removed))
	}
	return removed, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/identity"
	"ideanest/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations. Toggle is the
// only write path that moves like rows and idea counters.
type LikeRepository interface {
	Toggle(ctx context.Context, ideaID uint, liker identity.Identity, ip, userAgent string) (liked bool, likeCount int, err error)
	Exists(ctx context.Context, ideaID uint, liker identity.Identity) (bool, error)
	CountForIdea(ctx context.Context, ideaID uint) (int64, error)
	ListIdeasLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Idea, int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type likeRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db *gorm.DB, c *cache.Cache) LikeRepository {
	return &likeRepository{db: db, cache: c}
}

// scopeByIdentity narrows a like query to exactly one identity path: the user
// column for authenticated callers, the fingerprint column otherwise. The two
// paths never mix in a single predicate.
func scopeByIdentity(q *gorm.DB, liker identity.Identity) *gorm.DB {
	if liker.Authenticated() {
		return q.Where("user_id = ?", liker.UserID)
	}
	return q.Where("fingerprint = ?", liker.Fingerprint)
}

// Toggle flips the liker's like on an idea inside one transaction: lookup the
// identity-scoped row, delete-or-create, move the denormalized counter by an
// atomic delta, and reload the post-toggle count. Two racing first-time likes
// collide on the partial unique index; the loser surfaces as a conflict and is
// expected to retry.
func (r *likeRepository) Toggle(ctx context.Context, ideaID uint, liker identity.Identity, ip, userAgent string) (bool, int, error) {
	var (
		liked     bool
		likeCount int
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idea models.Idea
		if err := tx.Select("id").First(&idea, ideaID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("idea", ideaID)
			}
			return err
		}

		var existing models.Like
		err := scopeByIdentity(tx.Where("idea_id = ?", ideaID), liker).
			First(&existing).Error

		var delta int
		switch {
		case err == nil:
			if err := tx.Delete(&models.Like{}, existing.ID).Error; err != nil {
				return err
			}
			liked, delta = false, -1
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{
				IdeaID:    ideaID,
				IPAddress: ip,
				UserAgent: userAgent,
			}
			if liker.Authenticated() {
				uid := liker.UserID
				like.UserID = &uid
			} else {
				fp := liker.Fingerprint
				like.Fingerprint = &fp
			}
			if err := tx.Create(&like).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return models.NewConflictError("Like already in progress, please retry")
				}
				return err
			}
			liked, delta = true, 1
		default:
			return err
		}

		if err := tx.Model(&models.Idea{}).
			Where("id = ?", ideaID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error; err != nil {
			return err
		}

		return tx.Model(&models.Idea{}).
			Select("like_count").
			Where("id = ?", ideaID).
			Scan(&likeCount).Error
	})
	if err != nil {
		return false, 0, err
	}

	r.cache.Delete(ctx, cache.IdeaKey(ideaID), cache.LikeCountKey(ideaID), cache.TrendingKey())
	return liked, likeCount, nil
}

func (r *likeRepository) Exists(ctx context.Context, ideaID uint, liker identity.Identity) (bool, error) {
	var n int64
	err := scopeByIdentity(
		r.db.WithContext(ctx).Model(&models.Like{}).Where("idea_id = ?", ideaID),
		liker,
	).Count(&n).Error
	return n > 0, err
}

func (r *likeRepository) CountForIdea(ctx context.Context, ideaID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("idea_id = ?", ideaID).
		Count(&n).Error
	return n, err
}

// ListIdeasLikedBy returns the user's liked ideas, most recently liked first.
func (r *likeRepository) ListIdeasLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Idea, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Idea{}).
		Joins("JOIN likes ON likes.idea_id = ideas.id").
		Where("likes.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ideas []*models.Idea
	err := base.Select("ideas.*, TRUE AS liked").
		Preload("Author").
		Order("likes.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ideas).Error
	return ideas, total, err
}

func (r *likeRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Count(&n).Error
	return n, err
}

func (r *likeRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

// DeleteAnonymousBefore removes stale fingerprint likes and walks the affected
// idea counters back down in the same transaction, so counters keep matching
// the surviving rows.
func (r *likeRepository) DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`UPDATE ideas SET like_count = like_count - stale.cnt
			FROM (SELECT idea_id, COUNT(*) AS cnt
			      FROM likes
			      WHERE user_id IS NULL AND created_at < ?
			      GROUP BY idea_id) AS stale
			WHERE ideas.id = stale.idea_id`, cutoff).Error; err != nil {
			return err
		}
		res := tx.Where("user_id IS NULL AND created_at < ?", cutoff).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.cache.Delete(ctx, cache.TrendingKey())
	}
	return removed, nil
}

package repository

import (
	"context"

	"ideanest/internal/models"

	"gorm.io/gorm"
)

// RefreshTokenRepository persists refresh tokens, one row per live session.
// It satisfies token.Store.
type RefreshTokenRepository interface {
	Save(ctx context.Context, userID uint, token string) error
	Exists(ctx context.Context, userID uint, token string) (bool, error)
	Replace(ctx context.Context, userID uint, oldToken, newToken string) error
	DeleteOne(ctx context.Context, userID uint, token string) error
	DeleteAll(ctx context.Context, userID uint) error
	TrimToNewest(ctx context.Context, userID uint, n int) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Save(ctx context.Context, userID uint, token string) error {
	return r.db.WithContext(ctx).Create(&models.RefreshToken{
		UserID: userID,
		Token:  token,
	}).Error
}

func (r *refreshTokenRepository) Exists(ctx context.Context, userID uint, token string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Count(&n).Error
	return n > 0, err
}

// Replace swaps the rotated-away token for its successor in place, keeping the
// session's row (and its position in the trim ordering) instead of deleting and
// re-inserting.
func (r *refreshTokenRepository) Replace(ctx context.Context, userID uint, oldToken, newToken string) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND token = ?", userID, oldToken).
		Update("token", newToken).Error
}

func (r *refreshTokenRepository) DeleteOne(ctx context.Context, userID uint, token string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteAll(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}

// TrimToNewest drops the user's oldest sessions beyond n, newest kept.
func (r *refreshTokenRepository) TrimToNewest(ctx context.Context, userID uint, n int) error {
	sub := r.db.Model(&models.RefreshToken{}).
		Select("id").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(n)
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id NOT IN (?)", userID, sub).
		Delete(&models.RefreshToken{}).Error
}

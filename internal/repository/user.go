// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/models"

	"gorm.io/gorm"
)

// UserFilter narrows admin user listings. Each field maps to one typed query
// fragment; zero values are ignored.
type UserFilter struct {
	Role   models.Role
	Active *bool
	// Search matches name or email, case-insensitively.
	Search string
	// IncludeDeleted widens the listing to soft-deleted accounts. Reads that
	// want deleted rows must opt in here; there is no implicit widening.
	IncludeDeleted bool
}

// DailyCount is one day's activity bucket for analytics.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDIncludingDeleted(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id uint) error
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]*models.User, int64, error)
	Search(ctx context.Context, term string, limit, offset int) ([]*models.User, int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	SignupsPerDay(ctx context.Context, days int) ([]DailyCount, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID returns an active (non-deleted) user, or nil when absent.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDIncludingDeleted also finds soft-deleted accounts; admin-only reads.
func (r *userRepository) GetByIDIncludingDeleted(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Unscoped().First(&user, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.UserProfileKey(user.ID), cache.UserStatsKey(user.ID))
	return nil
}

// SoftDelete marks the account deleted and inactive; the row is never removed.
func (r *userRepository) SoftDelete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.UserProfileKey(id), cache.UserStatsKey(id))
	return nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]*models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.IncludeDeleted {
		q = q.Unscoped()
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *userRepository) Search(ctx context.Context, term string, limit, offset int) ([]*models.User, int64, error) {
	return r.List(ctx, UserFilter{Search: term, Active: boolPtr(true)}, limit, offset)
}

func (r *userRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *userRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *userRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

// SignupsPerDay buckets registrations per calendar day over the trailing window.
func (r *userRepository) SignupsPerDay(ctx context.Context, days int) ([]DailyCount, error) {
	var rows []DailyCount
	since := time.Now().AddDate(0, 0, -days)
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("DATE_TRUNC('day', created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("day").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

func boolPtr(b bool) *bool {
	return &b
}

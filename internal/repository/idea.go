package repository

import (
	"context"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/identity"
	"ideanest/internal/models"

	"gorm.io/gorm"
)

// IdeaSort enumerates the supported listing orders. Anything outside this set
// is rejected before it reaches the query builder.
type IdeaSort string

const (
	IdeaSortNew      IdeaSort = "new"
	IdeaSortTop      IdeaSort = "top"
	IdeaSortTrending IdeaSort = "trending"
)

// ValidIdeaSort reports whether s is a recognized sort order.
func ValidIdeaSort(s IdeaSort) bool {
	switch s {
	case IdeaSortNew, IdeaSortTop, IdeaSortTrending:
		return true
	}
	return false
}

// IdeaFilter narrows idea listings. Every field is a typed, named query
// fragment; zero values are ignored. Free-form query-string pass-through is
// deliberately not supported.
type IdeaFilter struct {
	Sort IdeaSort
	// Tag matches ideas carrying the exact (lowercase) tag.
	Tag string
	// Search matches title or content substrings.
	Search   string
	AuthorID uint
	// PublicOnly hides private ideas; listing endpoints set it unless the
	// caller can moderate.
	PublicOnly bool
}

// IdeaRepository defines the interface for idea data operations.
type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) error
	GetByID(ctx context.Context, id uint, viewer identity.Identity) (*models.Idea, error)
	IncrementViewCount(ctx context.Context, id uint) error
	Update(ctx context.Context, idea *models.Idea) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter IdeaFilter, viewer identity.Identity, limit, offset int) ([]*models.Idea, int64, error)
	ListTrending(ctx context.Context, limit int) ([]*models.Idea, error)
	ListTop(ctx context.Context, since time.Time, limit, offset int) ([]*models.Idea, int64, error)
	HasRecentWithTitle(ctx context.Context, title string, submitter identity.Identity, window time.Duration) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	IdeasPerDay(ctx context.Context, days int) ([]DailyCount, error)
	TopTags(ctx context.Context, limit int) ([]TagCount, error)
	StatsForAuthor(ctx context.Context, authorID uint) (*AuthorStats, error)
}

// AuthorStats aggregates a user's authored ideas.
type AuthorStats struct {
	Ideas         int64 `json:"ideas"`
	LikesReceived int64 `json:"likes_received"`
	Views         int64 `json:"views"`
}

// TagCount is one tag's usage count for analytics.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type ideaRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewIdeaRepository creates a new idea repository.
func NewIdeaRepository(db *gorm.DB, c *cache.Cache) IdeaRepository {
	return &ideaRepository{db: db, cache: c}
}

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) error {
	if err := r.db.WithContext(ctx).Create(idea).Error; err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.TrendingKey())
	return nil
}

// withLiked annotates each row with whether the viewer liked it, via a
// correlated EXISTS on the identity-scoped like row.
func withLiked(q *gorm.DB, viewer identity.Identity) *gorm.DB {
	switch {
	case viewer.Authenticated():
		return q.Select("ideas.*, EXISTS(SELECT 1 FROM likes WHERE likes.idea_id = ideas.id AND likes.user_id = ?) AS liked", viewer.UserID)
	case viewer.Fingerprint != "":
		return q.Select("ideas.*, EXISTS(SELECT 1 FROM likes WHERE likes.idea_id = ideas.id AND likes.fingerprint = ?) AS liked", viewer.Fingerprint)
	default:
		return q.Select("ideas.*, FALSE AS liked")
	}
}

func (r *ideaRepository) GetByID(ctx context.Context, id uint, viewer identity.Identity) (*models.Idea, error) {
	var idea models.Idea
	err := withLiked(r.db.WithContext(ctx).Model(&models.Idea{}), viewer).
		Preload("Author").
		First(&idea, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// IncrementViewCount bumps the counter atomically in the database. The fetched
// struct is never written back, so concurrent views cannot lose increments.
func (r *ideaRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Idea{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *ideaRepository) Update(ctx context.Context, idea *models.Idea) error {
	err := r.db.WithContext(ctx).Model(idea).
		Select("title", "content", "tags", "is_public", "updated_at").
		Updates(idea).Error
	if err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.IdeaKey(idea.ID), cache.TrendingKey())
	return nil
}

// Delete removes the idea row; like rows follow via ON DELETE CASCADE.
func (r *ideaRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Idea{}, id).Error; err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.IdeaKey(id), cache.LikeCountKey(id), cache.TrendingKey())
	return nil
}

func applyIdeaFilter(q *gorm.DB, filter IdeaFilter) *gorm.DB {
	if filter.PublicOnly {
		q = q.Where("is_public = ?", true)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Tag != "" {
		// Tags are a JSON array of quoted strings; exact-tag match on the
		// serialized form.
		q = q.Where("tags LIKE ?", `%"`+filter.Tag+`"%`)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR content ILIKE ?", like, like)
	}
	return q
}

func orderFor(sort IdeaSort) string {
	switch sort {
	case IdeaSortTop:
		return "like_count DESC, created_at DESC"
	case IdeaSortTrending:
		return "trending_score DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func (r *ideaRepository) List(ctx context.Context, filter IdeaFilter, viewer identity.Identity, limit, offset int) ([]*models.Idea, int64, error) {
	base := applyIdeaFilter(r.db.WithContext(ctx).Model(&models.Idea{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ideas []*models.Idea
	err := withLiked(base, viewer).
		Preload("Author").
		Order(orderFor(filter.Sort)).
		Limit(limit).Offset(offset).
		Find(&ideas).Error
	return ideas, total, err
}

// ListTrending returns the current leaderboard: public ideas with a positive
// score, best first. Cached upstream under cache.TrendingKey.
func (r *ideaRepository) ListTrending(ctx context.Context, limit int) ([]*models.Idea, error) {
	var ideas []*models.Idea
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND trending_score > 0", true).
		Preload("Author").
		Order("trending_score DESC, created_at DESC").
		Limit(limit).
		Find(&ideas).Error
	return ideas, err
}

func (r *ideaRepository) ListTop(ctx context.Context, since time.Time, limit, offset int) ([]*models.Idea, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Idea{}).
		Where("is_public = ? AND created_at >= ?", true, since)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ideas []*models.Idea
	err := q.Preload("Author").
		Order("like_count DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ideas).Error
	return ideas, total, err
}

// HasRecentWithTitle reports whether the submitter already posted an idea with
// this exact title inside the window. Backs the duplicate-submission guard.
func (r *ideaRepository) HasRecentWithTitle(ctx context.Context, title string, submitter identity.Identity, window time.Duration) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Idea{}).
		Where("title = ? AND created_at >= ?", title, time.Now().Add(-window))
	if submitter.Authenticated() {
		q = q.Where("author_id = ?", submitter.UserID)
	} else {
		q = q.Where("fingerprint = ?", submitter.Fingerprint)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ideaRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Idea{}).Count(&n).Error
	return n, err
}

func (r *ideaRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Idea{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *ideaRepository) IdeasPerDay(ctx context.Context, days int) ([]DailyCount, error) {
	var rows []DailyCount
	since := time.Now().AddDate(0, 0, -days)
	err := r.db.WithContext(ctx).Model(&models.Idea{}).
		Select("DATE_TRUNC('day', created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("day").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

func (r *ideaRepository) StatsForAuthor(ctx context.Context, authorID uint) (*AuthorStats, error) {
	var stats AuthorStats
	err := r.db.WithContext(ctx).Model(&models.Idea{}).
		Select("COUNT(*) AS ideas, COALESCE(SUM(like_count), 0) AS likes_received, COALESCE(SUM(view_count), 0) AS views").
		Where("author_id = ?", authorID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// TopTags expands the JSON tags column server-side and counts usage across
// public ideas.
func (r *ideaRepository) TopTags(ctx context.Context, limit int) ([]TagCount, error) {
	var rows []TagCount
	err := r.db.WithContext(ctx).
		Raw(`SELECT t.tag AS tag, COUNT(*) AS count
		     FROM ideas, jsonb_array_elements_text(tags::jsonb) AS t(tag)
		     WHERE is_public = true
		     GROUP BY t.tag
		     ORDER BY count DESC, tag
		     LIMIT ?`, limit).
		Scan(&rows).Error
	return rows, err
}

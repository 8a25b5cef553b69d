// Package trending computes decayed popularity scores for ideas and persists
// them in batch for the trending feed.
package trending

import (
	"context"
	"log/slog"
	"math"
	"time"

	"ideanest/internal/models"

	"gorm.io/gorm"
)

// Options control the scoring curve.
type Options struct {
	// TimeWindow is how long an idea stays eligible; older ideas score 0.
	TimeWindow time.Duration
	// DecayFactor is the per-hour multiplicative decay applied to the like count.
	DecayFactor float64
	// GraceWindow is the initial period during which Boost applies.
	GraceWindow time.Duration
	// Boost multiplies the score of ideas younger than GraceWindow.
	Boost float64
	// MinLikes excludes ideas below this like count from batch scoring.
	MinLikes int
}

// DefaultOptions mirrors the production scoring curve.
var DefaultOptions = Options{
	TimeWindow:  24 * time.Hour,
	DecayFactor: 0.8,
	GraceWindow: 2 * time.Hour,
	Boost:       1.3,
	MinLikes:    1,
}

// Score computes the trending score for an idea. Deterministic given
// (likeCount, createdAt, now); ideas older than the time window score 0.
func Score(likeCount int, createdAt, now time.Time, opts Options) float64 {
	hoursOld := now.Sub(createdAt).Hours()
	if hoursOld > opts.TimeWindow.Hours() {
		return 0
	}
	score := float64(likeCount) * math.Pow(opts.DecayFactor, hoursOld)
	if hoursOld < opts.GraceWindow.Hours() {
		score *= opts.Boost
	}
	return score
}

// Scorer persists computed scores. Re-running UpdateScores is safe: every
// eligible idea is overwritten with a freshly computed value, and ideas that
// fell out of the window are reset to 0.
type Scorer struct {
	db     *gorm.DB
	opts   Options
	logger *slog.Logger
}

// NewScorer creates a Scorer with the given options.
func NewScorer(db *gorm.DB, opts Options, logger *slog.Logger) *Scorer {
	return &Scorer{db: db, opts: opts, logger: logger}
}

// UpdateScores recomputes and stores trending scores for all eligible ideas.
// Returns the number of ideas updated.
func (s *Scorer) UpdateScores(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.opts.TimeWindow)

	// Expired ideas drop to 0 so stale scores never linger in the feed.
	if err := s.db.WithContext(ctx).
		Model(&models.Idea{}).
		Where("created_at < ? AND trending_score <> 0", cutoff).
		Update("trending_score", 0).Error; err != nil {
		return 0, err
	}

	var ideas []models.Idea
	if err := s.db.WithContext(ctx).
		Select("id", "like_count", "created_at").
		Where("created_at >= ? AND like_count >= ?", cutoff, s.opts.MinLikes).
		Find(&ideas).Error; err != nil {
		return 0, err
	}

	updated := 0
	for _, idea := range ideas {
		score := Score(idea.LikeCount, idea.CreatedAt, now, s.opts)
		if err := s.db.WithContext(ctx).
			Model(&models.Idea{}).
			Where("id = ?", idea.ID).
			Update("trending_score", score).Error; err != nil {
			return updated, err
		}
		updated++
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "trending scores updated",
			slog.Int("ideas", updated),
			slog.Time("cutoff", cutoff),
		)
	}
	return updated, nil
}

package models

import (
	"time"
)

// Idea limits enforced at the service layer and mirrored in validation.
const (
	IdeaTitleMinLen   = 3
	IdeaTitleMaxLen   = 200
	IdeaContentMinLen = 10
	IdeaContentMaxLen = 5000
	IdeaMaxTags       = 10
	IdeaTagMaxLen     = 50
)

// Idea represents a posted idea. Exactly one of AuthorID or Fingerprint is set:
// authenticated submissions carry the author reference, anonymous ones carry the
// fingerprint derived from client metadata. IPAddress and UserAgent are retained
// for abuse handling but never serialized.
type Idea struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:200;not null;index" json:"title"`
	Content     string  `gorm:"type:text;not null" json:"content"`
	Tags        Tags    `gorm:"type:text" json:"tags"`
	AuthorID    *uint   `gorm:"index" json:"author_id,omitempty"`
	Author      *User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Fingerprint *string `gorm:"size:64;index" json:"-"`
	IPAddress   string  `gorm:"size:45" json:"-"`
	UserAgent   string  `json:"-"`
	IsPublic    bool    `gorm:"default:true;index" json:"is_public"`
	// LikeCount is a denormalized projection of the like rows for this idea.
	// It is only ever moved by atomic deltas inside the like toggle transaction.
	LikeCount     int       `gorm:"default:0;not null" json:"like_count"`
	ViewCount     int       `gorm:"default:0;not null" json:"view_count"`
	TrendingScore float64   `gorm:"default:0;index" json:"trending_score"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Liked indicates whether the current requesting identity liked this idea (computed)
	Liked bool `gorm:"->;-:migration" json:"liked"`
}

// Anonymous reports whether the idea was submitted without an account.
func (i *Idea) Anonymous() bool {
	return i.AuthorID == nil
}

// OwnedBy reports whether the given user authored the idea.
func (i *Idea) OwnedBy(userID uint) bool {
	return i.AuthorID != nil && *i.AuthorID == userID
}

package models

import (
	"time"
)

// MaxSessionsPerUser caps how many refresh tokens a user may hold; login trims
// the stored list to the newest N so the table cannot grow unboundedly.
const MaxSessionsPerUser = 5

// RefreshToken is one active session's refresh token. The stored list is a
// positive revocation list: a refresh token that is not present here is invalid
// even when cryptographically well-formed. Rotation replaces Token in place so
// each session keeps exactly one row.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"type:text;not null;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

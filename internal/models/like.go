package models

import (
	"time"
)

// Like records a single like on an idea by one identity. Exactly one of UserID
// or Fingerprint is populated; the database enforces this with a CHECK
// constraint and deduplicates concurrent likes with two partial unique indexes,
// one per identity path (see database.Migrate).
type Like struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	IdeaID      uint    `gorm:"not null;index" json:"idea_id"`
	UserID      *uint   `json:"user_id,omitempty"`
	Fingerprint *string `gorm:"size:64" json:"-"`
	IPAddress   string  `gorm:"size:45" json:"-"`
	UserAgent   string  `json:"-"`

	CreatedAt time.Time `json:"created_at"`

	Idea Idea  `gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE" json:"idea"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

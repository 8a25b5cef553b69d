// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the authorization role assigned to a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// ValidRole reports whether r is one of the supported roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User represents a registered IdeaNest account.
// Email is stored lowercased; Password holds the bcrypt hash and is never serialized.
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	Password        string         `gorm:"not null" json:"-"`
	Name            string         `gorm:"size:50" json:"name"`
	Bio             string         `gorm:"size:500" json:"bio"`
	Avatar          string         `json:"avatar"`
	Role            Role           `gorm:"type:varchar(16);default:user;index" json:"role"`
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`
	IsEmailVerified bool           `gorm:"default:false" json:"is_email_verified"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Ideas         []Idea         `gorm:"foreignKey:AuthorID" json:"ideas,omitempty"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user is an active, non-deleted admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin && u.IsActive && !u.DeletedAt.Valid
}

// CanModerate reports whether the user may act on other users' content.
func (u *User) CanModerate() bool {
	return (u.Role == RoleAdmin || u.Role == RoleModerator) && u.IsActive && !u.DeletedAt.Valid
}

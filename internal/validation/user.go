package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	NameMinLen = 2
	NameMaxLen = 50
	BioMaxLen  = 500
)

var avatarExtRegex = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// ValidateName checks display name length bounds.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < NameMinLen {
		return fmt.Errorf("name must be at least %d characters", NameMinLen)
	}
	if len(name) > NameMaxLen {
		return fmt.Errorf("name cannot exceed %d characters", NameMaxLen)
	}
	return nil
}

// ValidateBio checks bio length.
func ValidateBio(bio string) error {
	if len(strings.TrimSpace(bio)) > BioMaxLen {
		return fmt.Errorf("bio cannot exceed %d characters", BioMaxLen)
	}
	return nil
}

// ValidateAvatarURL checks that the avatar is an absolute URL pointing at an
// image file.
func ValidateAvatarURL(avatar string) error {
	u, err := url.Parse(avatar)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("avatar must be a valid URL")
	}
	if !avatarExtRegex.MatchString(u.Path) {
		return fmt.Errorf("avatar must be a valid image URL")
	}
	return nil
}

package validation

import (
	"fmt"
	"strings"

	"ideanest/internal/models"
)

// ValidateIdeaTitle checks title length bounds on the trimmed value.
func ValidateIdeaTitle(title string) error {
	title = strings.TrimSpace(title)
	if len(title) < models.IdeaTitleMinLen {
		return fmt.Errorf("title must be at least %d characters", models.IdeaTitleMinLen)
	}
	if len(title) > models.IdeaTitleMaxLen {
		return fmt.Errorf("title cannot exceed %d characters", models.IdeaTitleMaxLen)
	}
	return nil
}

// ValidateIdeaContent checks content length bounds on the trimmed value.
func ValidateIdeaContent(content string) error {
	content = strings.TrimSpace(content)
	if len(content) < models.IdeaContentMinLen {
		return fmt.Errorf("content must be at least %d characters", models.IdeaContentMinLen)
	}
	if len(content) > models.IdeaContentMaxLen {
		return fmt.Errorf("content cannot exceed %d characters", models.IdeaContentMaxLen)
	}
	return nil
}

// NormalizeTags trims, lowercases and deduplicates tags, then checks the
// per-tag and per-idea limits. Empty tags are dropped.
func NormalizeTags(tags []string) (models.Tags, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make(models.Tags, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > models.IdeaTagMaxLen {
			return nil, fmt.Errorf("tags cannot exceed %d characters", models.IdeaTagMaxLen)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > models.IdeaMaxTags {
		return nil, fmt.Errorf("cannot have more than %d tags", models.IdeaMaxTags)
	}
	return out, nil
}

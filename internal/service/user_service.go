package service

import (
	"context"
	"log/slog"
	"strings"

	"ideanest/internal/cache"
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/token"
	"ideanest/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles profile reads and self-service account management.
type UserService struct {
	userRepo repository.UserRepository
	ideaRepo repository.IdeaRepository
	tokens   *token.Service
	cache    *cache.Cache
}

type UpdateProfileInput struct {
	UserID uint
	Name   string
	Bio    *string
	Avatar *string
}

type ChangePasswordInput struct {
	UserID          uint
	CurrentPassword string
	NewPassword     string
}

// PublicProfile is the subset of a user that anyone may see.
type PublicProfile struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"created_at"`
}

func NewUserService(
	userRepo repository.UserRepository,
	ideaRepo repository.IdeaRepository,
	tokens *token.Service,
	c *cache.Cache,
) *UserService {
	return &UserService{userRepo: userRepo, ideaRepo: ideaRepo, tokens: tokens, cache: c}
}

// GetProfile returns the caller's own profile, cache-aside.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.cache.Aside(ctx, cache.UserProfileKey(userID), &user, cache.UserProfileTTL, func() error {
		found, fetchErr := s.userRepo.GetByID(ctx, userID)
		if fetchErr != nil {
			return fetchErr
		}
		if found == nil {
			return models.NewNotFoundError("user", userID)
		}
		user = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPublicProfile returns another user's public fields.
func (s *UserService) GetPublicProfile(ctx context.Context, userID uint) (*PublicProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewNotFoundError("user", userID)
	}
	return &PublicProfile{
		ID:        user.ID,
		Name:      user.Name,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt.Format("2006-01-02"),
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Name == "" && in.Bio == nil && in.Avatar == nil {
		return nil, models.NewValidationError("At least one field must be provided to update")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", in.UserID)
	}

	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = strings.TrimSpace(in.Name)
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Avatar != nil {
		if *in.Avatar != "" {
			if err := validation.ValidateAvatarURL(*in.Avatar); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
		}
		user.Avatar = *in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every session so stolen refresh tokens die with the old password.
func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == in.NewPassword {
		return models.NewValidationError("New password must be different from current password")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("user", in.UserID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.tokens.RevokeAll(ctx, in.UserID)
}

// Stats aggregates the user's authored ideas, cache-aside.
func (s *UserService) Stats(ctx context.Context, userID uint) (*repository.AuthorStats, error) {
	var stats repository.AuthorStats
	err := s.cache.Aside(ctx, cache.UserStatsKey(userID), &stats, cache.UserStatsTTL, func() error {
		found, fetchErr := s.ideaRepo.StatsForAuthor(ctx, userID)
		if fetchErr != nil {
			return fetchErr
		}
		stats = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// DeleteAccount soft-deletes the caller's account after a password check and
// revokes every session.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("user", userID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.NewUnauthorizedError("Password is incorrect")
	}

	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "account deleted",
		slog.Uint64("user_id", uint64(userID)))
	return nil
}

// SearchUsers finds active users by name or email fragment.
func (s *UserService) SearchUsers(ctx context.Context, term string, page models.PageParams) (*models.Paginated[*PublicProfile], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	page = page.Normalize()
	users, total, err := s.userRepo.Search(ctx, term, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}

	profiles := make([]*PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, &PublicProfile{
			ID:        u.ID,
			Name:      u.Name,
			Bio:       u.Bio,
			Avatar:    u.Avatar,
			CreatedAt: u.CreatedAt.Format("2006-01-02"),
		})
	}
	return &models.Paginated[*PublicProfile]{
		Items:      profiles,
		Pagination: models.NewPageMeta(page, total),
	}, nil
}

// IsAdmin reports whether the user holds the admin role; injected into
// services that gate mutations on adminship.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin(), nil
}

// CanModerate reports whether the user is an admin or moderator.
func (s *UserService) CanModerate(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.CanModerate(), nil
}

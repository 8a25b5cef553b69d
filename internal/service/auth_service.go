// Package service contains the application's business logic.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/token"
	"ideanest/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and the refresh token lifecycle.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *token.Service
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult carries the authenticated user and a fresh token pair.
type AuthResult struct {
	User   *models.User `json:"user"`
	Tokens token.Pair   `json:"tokens"`
}

func NewAuthService(userRepo repository.UserRepository, tokens *token.Service) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if err := validation.ValidateBio(in.Bio); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Avatar != "" {
		if err := validation.ValidateAvatarURL(in.Avatar); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		// Default the display name to the email's local part.
		name = strings.SplitN(email, "@", 2)[0]
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Name:     name,
		Bio:      strings.TrimSpace(in.Bio),
		Avatar:   in.Avatar,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered",
		slog.Uint64("user_id", uint64(user.ID)))
	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	// Identical error for unknown email and wrong password.
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError("Account is deactivated")
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user logged in",
		slog.Uint64("user_id", uint64(user.ID)))
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh rotates a refresh token for a new pair. Any verification or rotation
// failure collapses to UNAUTHORIZED so callers learn nothing about why.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	if refreshToken == "" {
		return token.Pair{}, models.NewUnauthorizedError("Refresh token required")
	}

	pair, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) || errors.Is(err, token.ErrRefreshNotRecognized) {
			middleware.TokenRotations.WithLabelValues("rejected").Inc()
			return token.Pair{}, models.NewUnauthorizedError("Invalid refresh token")
		}
		return token.Pair{}, err
	}

	middleware.TokenRotations.WithLabelValues("rotated").Inc()
	return pair, nil
}

// Logout revokes the presented session. Unknown tokens are not an error; the
// session is gone either way.
func (s *AuthService) Logout(ctx context.Context, userID uint, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.RevokeOne(ctx, userID, refreshToken)
}

// LogoutAll revokes every session for the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.tokens.RevokeAll(ctx, userID)
}

// Package token issues and verifies the two JWT families used by the API:
// short-lived access tokens and long-lived rotating refresh tokens, signed with
// separate secrets. Refresh tokens are only valid while present in the
// server-side stored list, which acts as a positive revocation list.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ideanest/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers malformed, expired, mis-signed or wrong-claim tokens.
	ErrInvalidToken = errors.New("token: invalid token")
	// ErrRefreshNotRecognized means the refresh token verified cryptographically
	// but is not in the user's stored list (logged out or already rotated away).
	ErrRefreshNotRecognized = errors.New("token: refresh token not recognized")
)

// Claims carried by both token families.
type Claims struct {
	UserID uint        `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token couple issued together.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Store persists each user's valid refresh tokens.
type Store interface {
	Save(ctx context.Context, userID uint, token string) error
	Exists(ctx context.Context, userID uint, token string) (bool, error)
	// Replace swaps old for new in place, keeping one row per session.
	Replace(ctx context.Context, userID uint, oldToken, newToken string) error
	DeleteOne(ctx context.Context, userID uint, token string) error
	DeleteAll(ctx context.Context, userID uint) error
	// TrimToNewest drops all but the n most recent tokens for the user.
	TrimToNewest(ctx context.Context, userID uint, n int) error
}

// Options configure the service.
type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// Service signs, verifies and rotates tokens.
type Service struct {
	opts  Options
	store Store
	now   func() time.Time
}

// NewService creates a token service backed by the given refresh token store.
func NewService(opts Options, store Store) *Service {
	return &Service{opts: opts, store: store, now: time.Now}
}

// Issue signs a fresh token pair for the user, stores the refresh token and
// trims the stored list to the session cap. Used at register and login.
func (s *Service) Issue(ctx context.Context, user *models.User) (Pair, error) {
	pair, err := s.sign(user.ID, user.Email, user.Role)
	if err != nil {
		return Pair{}, err
	}
	if err := s.store.Save(ctx, user.ID, pair.RefreshToken); err != nil {
		return Pair{}, fmt.Errorf("storing refresh token: %w", err)
	}
	if err := s.store.TrimToNewest(ctx, user.ID, models.MaxSessionsPerUser); err != nil {
		return Pair{}, fmt.Errorf("trimming sessions: %w", err)
	}
	return pair, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	return s.verify(tokenString, s.opts.AccessSecret)
}

// VerifyRefresh validates a refresh token cryptographically. Membership in the
// stored list is checked separately by Rotate.
func (s *Service) VerifyRefresh(tokenString string) (*Claims, error) {
	return s.verify(tokenString, s.opts.RefreshSecret)
}

// Rotate exchanges a valid, stored refresh token for a fresh pair. The old
// token is replaced in place and is permanently invalid afterwards, which stops
// refresh-token replay.
func (s *Service) Rotate(ctx context.Context, oldRefresh string) (Pair, error) {
	claims, err := s.VerifyRefresh(oldRefresh)
	if err != nil {
		return Pair{}, err
	}

	stored, err := s.store.Exists(ctx, claims.UserID, oldRefresh)
	if err != nil {
		return Pair{}, fmt.Errorf("checking refresh token: %w", err)
	}
	if !stored {
		return Pair{}, ErrRefreshNotRecognized
	}

	pair, err := s.sign(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return Pair{}, err
	}
	if err := s.store.Replace(ctx, claims.UserID, oldRefresh, pair.RefreshToken); err != nil {
		return Pair{}, fmt.Errorf("rotating refresh token: %w", err)
	}
	return pair, nil
}

// RevokeOne invalidates a single session's refresh token (logout).
func (s *Service) RevokeOne(ctx context.Context, userID uint, refreshToken string) error {
	return s.store.DeleteOne(ctx, userID, refreshToken)
}

// RevokeAll invalidates every stored refresh token for the user (logout-all).
func (s *Service) RevokeAll(ctx context.Context, userID uint) error {
	return s.store.DeleteAll(ctx, userID)
}

func (s *Service) sign(userID uint, email string, role models.Role) (Pair, error) {
	access, err := s.signOne(userID, email, role, s.opts.AccessSecret, s.opts.AccessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := s.signOne(userID, email, role, s.opts.RefreshSecret, s.opts.RefreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("signing refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) signOne(userID uint, email string, role models.Role, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("token: signing secret not configured")
	}
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    s.opts.Issuer,
			Audience:  jwt.ClaimStrings{s.opts.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) verify(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.opts.Issuer),
		jwt.WithAudience(s.opts.Audience),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/config"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/service"
	"ideanest/internal/token"
	"ideanest/internal/trending"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "test",
		JWTAccessSecret:   "access-secret-for-handler-tests",
		JWTRefreshSecret:  "refresh-secret-for-handler-tests",
		JWTAccessTTLMin:   15,
		JWTRefreshTTLDays: 7,
		JWTIssuer:         "ideanest-api",
		JWTAudience:       "ideanest-client",
	}
}

// newTestServer builds a Server over an isolated in-memory SQLite database and
// a degraded cache, skipping the Prometheus middleware so the test binary does
// not register duplicate collectors.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Idea{},
		&models.Like{},
	))
	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_idea_user
		 ON likes (idea_id, user_id) WHERE user_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_idea_fingerprint
		 ON likes (idea_id, fingerprint) WHERE fingerprint IS NOT NULL`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := testConfig()
	c := cache.NewWithClient(nil)

	userRepo := repository.NewUserRepository(db, c)
	ideaRepo := repository.NewIdeaRepository(db, c)
	likeRepo := repository.NewLikeRepository(db, c)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	tokens := token.NewService(token.Options{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
	}, refreshRepo)

	s := &Server{
		config:   cfg,
		db:       db,
		cache:    c,
		tokens:   tokens,
		scorer:   trending.NewScorer(db, trending.DefaultOptions, nil),
		userRepo: userRepo,
		ideaRepo: ideaRepo,
		likeRepo: likeRepo,
	}
	s.userService = service.NewUserService(userRepo, ideaRepo, tokens, c)
	s.authService = service.NewAuthService(userRepo, tokens)
	s.ideaService = service.NewIdeaService(ideaRepo, c, s.userService.CanModerate)
	s.likeService = service.NewLikeService(likeRepo, c)
	s.adminService = service.NewAdminService(userRepo, ideaRepo, likeRepo, tokens, c)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, err)
		},
	})
	s.SetupRoutes(app)
	return s, app
}

// createUser inserts a user directly and returns it with a signed token pair.
func createUser(t *testing.T, s *Server, email string, role models.Role) (*models.User, token.Pair) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("SecurePass1!"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, s.db.Create(user).Error)

	pair, err := s.tokens.Issue(t.Context(), user)
	require.NoError(t, err)
	return user, pair
}

func createIdea(t *testing.T, s *Server, authorID uint, title string) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		Title:     title,
		Content:   "Content long enough to pass validation",
		Tags:      models.Tags{"go"},
		AuthorID:  &authorID,
		IsPublic:  true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.db.Create(idea).Error)
	return idea
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, bearer string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("User-Agent", "handler-test/1.0")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// decodeEnvelope unmarshals the uniform response envelope, returning the data
// payload re-marshaled into dest when dest is non-nil.
func decodeEnvelope(t *testing.T, resp *http.Response, dest any) models.Response {
	t.Helper()

	var envelope models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if dest != nil {
		b, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, dest))
	}
	return envelope
}

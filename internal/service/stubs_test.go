package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/identity"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn                  func(context.Context, *models.User) error
	getByIDFn                 func(context.Context, uint) (*models.User, error)
	getByIDIncludingDeletedFn func(context.Context, uint) (*models.User, error)
	getByEmailFn              func(context.Context, string) (*models.User, error)
	updateFn                  func(context.Context, *models.User) error
	softDeleteFn              func(context.Context, uint) error
	listFn                    func(context.Context, repository.UserFilter, int, int) ([]*models.User, int64, error)
	searchFn                  func(context.Context, string, int, int) ([]*models.User, int64, error)
	countAllFn                func(context.Context) (int64, error)
	countActiveFn             func(context.Context) (int64, error)
	countCreatedSinceFn       func(context.Context, time.Time) (int64, error)
	signupsPerDayFn           func(context.Context, int) ([]repository.DailyCount, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDIncludingDeleted(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDIncludingDeletedFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error {
	return s.updateFn(ctx, u)
}
func (s *userRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, f repository.UserFilter, limit, offset int) ([]*models.User, int64, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, term string, limit, offset int) ([]*models.User, int64, error) {
	return s.searchFn(ctx, term, limit, offset)
}
func (s *userRepoStub) CountAll(ctx context.Context) (int64, error) { return s.countAllFn(ctx) }
func (s *userRepoStub) CountActive(ctx context.Context) (int64, error) {
	return s.countActiveFn(ctx)
}
func (s *userRepoStub) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.countCreatedSinceFn(ctx, since)
}
func (s *userRepoStub) SignupsPerDay(ctx context.Context, days int) ([]repository.DailyCount, error) {
	return s.signupsPerDayFn(ctx, days)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:                  func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn:                 func(_ context.Context, _ uint) (*models.User, error) { return nil, nil },
		getByIDIncludingDeletedFn: func(_ context.Context, _ uint) (*models.User, error) { return nil, nil },
		getByEmailFn:              func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		updateFn:                  func(_ context.Context, _ *models.User) error { return nil },
		softDeleteFn:              func(_ context.Context, _ uint) error { return nil },
		listFn: func(_ context.Context, _ repository.UserFilter, _, _ int) ([]*models.User, int64, error) {
			return nil, 0, nil
		},
		searchFn: func(_ context.Context, _ string, _, _ int) ([]*models.User, int64, error) {
			return nil, 0, nil
		},
		countAllFn:          func(_ context.Context) (int64, error) { return 0, nil },
		countActiveFn:       func(_ context.Context) (int64, error) { return 0, nil },
		countCreatedSinceFn: func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
		signupsPerDayFn:     func(_ context.Context, _ int) ([]repository.DailyCount, error) { return nil, nil },
	}
}

// ideaRepoStub is a stub for repository.IdeaRepository.
type ideaRepoStub struct {
	createFn             func(context.Context, *models.Idea) error
	getByIDFn            func(context.Context, uint, identity.Identity) (*models.Idea, error)
	incrementViewCountFn func(context.Context, uint) error
	updateFn             func(context.Context, *models.Idea) error
	deleteFn             func(context.Context, uint) error
	listFn               func(context.Context, repository.IdeaFilter, identity.Identity, int, int) ([]*models.Idea, int64, error)
	listTrendingFn       func(context.Context, int) ([]*models.Idea, error)
	listTopFn            func(context.Context, time.Time, int, int) ([]*models.Idea, int64, error)
	hasRecentWithTitleFn func(context.Context, string, identity.Identity, time.Duration) (bool, error)
	countAllFn           func(context.Context) (int64, error)
	countCreatedSinceFn  func(context.Context, time.Time) (int64, error)
	ideasPerDayFn        func(context.Context, int) ([]repository.DailyCount, error)
	topTagsFn            func(context.Context, int) ([]repository.TagCount, error)
	statsForAuthorFn     func(context.Context, uint) (*repository.AuthorStats, error)
}

func (s *ideaRepoStub) Create(ctx context.Context, idea *models.Idea) error {
	return s.createFn(ctx, idea)
}
func (s *ideaRepoStub) GetByID(ctx context.Context, id uint, viewer identity.Identity) (*models.Idea, error) {
	return s.getByIDFn(ctx, id, viewer)
}
func (s *ideaRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementViewCountFn(ctx, id)
}
func (s *ideaRepoStub) Update(ctx context.Context, idea *models.Idea) error {
	return s.updateFn(ctx, idea)
}
func (s *ideaRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *ideaRepoStub) List(ctx context.Context, f repository.IdeaFilter, viewer identity.Identity, limit, offset int) ([]*models.Idea, int64, error) {
	return s.listFn(ctx, f, viewer, limit, offset)
}
func (s *ideaRepoStub) ListTrending(ctx context.Context, limit int) ([]*models.Idea, error) {
	return s.listTrendingFn(ctx, limit)
}
func (s *ideaRepoStub) ListTop(ctx context.Context, since time.Time, limit, offset int) ([]*models.Idea, int64, error) {
	return s.listTopFn(ctx, since, limit, offset)
}
func (s *ideaRepoStub) HasRecentWithTitle(ctx context.Context, title string, submitter identity.Identity, window time.Duration) (bool, error) {
	return s.hasRecentWithTitleFn(ctx, title, submitter, window)
}
func (s *ideaRepoStub) CountAll(ctx context.Context) (int64, error) { return s.countAllFn(ctx) }
func (s *ideaRepoStub) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.countCreatedSinceFn(ctx, since)
}
func (s *ideaRepoStub) IdeasPerDay(ctx context.Context, days int) ([]repository.DailyCount, error) {
	return s.ideasPerDayFn(ctx, days)
}
func (s *ideaRepoStub) TopTags(ctx context.Context, limit int) ([]repository.TagCount, error) {
	return s.topTagsFn(ctx, limit)
}
func (s *ideaRepoStub) StatsForAuthor(ctx context.Context, authorID uint) (*repository.AuthorStats, error) {
	return s.statsForAuthorFn(ctx, authorID)
}

func noopIdeaRepo() *ideaRepoStub {
	return &ideaRepoStub{
		createFn: func(_ context.Context, _ *models.Idea) error { return nil },
		getByIDFn: func(_ context.Context, id uint, _ identity.Identity) (*models.Idea, error) {
			return &models.Idea{ID: id, IsPublic: true}, nil
		},
		incrementViewCountFn: func(_ context.Context, _ uint) error { return nil },
		updateFn:             func(_ context.Context, _ *models.Idea) error { return nil },
		deleteFn:             func(_ context.Context, _ uint) error { return nil },
		listFn: func(_ context.Context, _ repository.IdeaFilter, _ identity.Identity, _, _ int) ([]*models.Idea, int64, error) {
			return nil, 0, nil
		},
		listTrendingFn: func(_ context.Context, _ int) ([]*models.Idea, error) { return nil, nil },
		listTopFn: func(_ context.Context, _ time.Time, _, _ int) ([]*models.Idea, int64, error) {
			return nil, 0, nil
		},
		hasRecentWithTitleFn: func(_ context.Context, _ string, _ identity.Identity, _ time.Duration) (bool, error) {
			return false, nil
		},
		countAllFn:          func(_ context.Context) (int64, error) { return 0, nil },
		countCreatedSinceFn: func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
		ideasPerDayFn:       func(_ context.Context, _ int) ([]repository.DailyCount, error) { return nil, nil },
		topTagsFn:           func(_ context.Context, _ int) ([]repository.TagCount, error) { return nil, nil },
		statsForAuthorFn: func(_ context.Context, _ uint) (*repository.AuthorStats, error) {
			return &repository.AuthorStats{}, nil
		},
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	toggleFn                func(context.Context, uint, identity.Identity, string, string) (bool, int, error)
	existsFn                func(context.Context, uint, identity.Identity) (bool, error)
	countForIdeaFn          func(context.Context, uint) (int64, error)
	listIdeasLikedByFn      func(context.Context, uint, int, int) ([]*models.Idea, int64, error)
	countAllFn              func(context.Context) (int64, error)
	countCreatedSinceFn     func(context.Context, time.Time) (int64, error)
	deleteAnonymousBeforeFn func(context.Context, time.Time) (int64, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, ideaID uint, liker identity.Identity, ip, ua string) (bool, int, error) {
	return s.toggleFn(ctx, ideaID, liker, ip, ua)
}
func (s *likeRepoStub) Exists(ctx context.Context, ideaID uint, liker identity.Identity) (bool, error) {
	return s.existsFn(ctx, ideaID, liker)
}
func (s *likeRepoStub) CountForIdea(ctx context.Context, ideaID uint) (int64, error) {
	return s.countForIdeaFn(ctx, ideaID)
}
func (s *likeRepoStub) ListIdeasLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Idea, int64, error) {
	return s.listIdeasLikedByFn(ctx, userID, limit, offset)
}
func (s *likeRepoStub) CountAll(ctx context.Context) (int64, error) { return s.countAllFn(ctx) }
func (s *likeRepoStub) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.countCreatedSinceFn(ctx, since)
}
func (s *likeRepoStub) DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.deleteAnonymousBeforeFn(ctx, cutoff)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		toggleFn: func(_ context.Context, _ uint, _ identity.Identity, _, _ string) (bool, int, error) {
			return true, 1, nil
		},
		existsFn:       func(_ context.Context, _ uint, _ identity.Identity) (bool, error) { return false, nil },
		countForIdeaFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listIdeasLikedByFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Idea, int64, error) {
			return nil, 0, nil
		},
		countAllFn:              func(_ context.Context) (int64, error) { return 0, nil },
		countCreatedSinceFn:     func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
		deleteAnonymousBeforeFn: func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
	}
}

// tokenStoreStub is an in-memory token.Store.
type tokenStoreStub struct {
	tokens map[uint][]string
}

func newTokenStore() *tokenStoreStub {
	return &tokenStoreStub{tokens: map[uint][]string{}}
}

func (m *tokenStoreStub) Save(_ context.Context, userID uint, tok string) error {
	m.tokens[userID] = append(m.tokens[userID], tok)
	return nil
}
func (m *tokenStoreStub) Exists(_ context.Context, userID uint, tok string) (bool, error) {
	for _, t := range m.tokens[userID] {
		if t == tok {
			return true, nil
		}
	}
	return false, nil
}
func (m *tokenStoreStub) Replace(_ context.Context, userID uint, oldTok, newTok string) error {
	for i, t := range m.tokens[userID] {
		if t == oldTok {
			m.tokens[userID][i] = newTok
		}
	}
	return nil
}
func (m *tokenStoreStub) DeleteOne(_ context.Context, userID uint, tok string) error {
	kept := m.tokens[userID][:0]
	for _, t := range m.tokens[userID] {
		if t != tok {
			kept = append(kept, t)
		}
	}
	m.tokens[userID] = kept
	return nil
}
func (m *tokenStoreStub) DeleteAll(_ context.Context, userID uint) error {
	delete(m.tokens, userID)
	return nil
}
func (m *tokenStoreStub) TrimToNewest(_ context.Context, userID uint, n int) error {
	if len(m.tokens[userID]) > n {
		m.tokens[userID] = m.tokens[userID][len(m.tokens[userID])-n:]
	}
	return nil
}

func testTokenService(store token.Store) *token.Service {
	return token.NewService(token.Options{
		AccessSecret:  "access-secret-for-tests-0123456789ab",
		RefreshSecret: "refresh-secret-for-tests-0123456789a",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "ideanest-api",
		Audience:      "ideanest-client",
	}, store)
}

func noCache() *cache.Cache {
	return cache.NewWithClient(nil)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

package service

import (
	"context"
	"testing"
	"time"

	"ideanest/internal/identity"
	"ideanest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_PassesIdentityThrough(t *testing.T) {
	repo := noopLikeRepo()
	var gotLiker identity.Identity
	repo.toggleFn = func(_ context.Context, ideaID uint, liker identity.Identity, ip, ua string) (bool, int, error) {
		gotLiker = liker
		assert.EqualValues(t, 7, ideaID)
		assert.Equal(t, "1.2.3.4", ip)
		assert.Equal(t, "agent", ua)
		return true, 3, nil
	}
	svc := NewLikeService(repo, noCache())

	result, err := svc.Toggle(context.Background(), 7, identity.Identity{Fingerprint: "fp-1"}, "1.2.3.4", "agent")
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 3, result.LikeCount)
	assert.Equal(t, "fp-1", gotLiker.Fingerprint)
}

func TestToggle_PropagatesConflict(t *testing.T) {
	repo := noopLikeRepo()
	repo.toggleFn = func(_ context.Context, _ uint, _ identity.Identity, _, _ string) (bool, int, error) {
		return false, 0, models.NewConflictError("Like already in progress, please retry")
	}
	svc := NewLikeService(repo, noCache())

	_, err := svc.Toggle(context.Background(), 7, identity.Identity{UserID: 1}, "", "")
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestLikedIdeas_Paginates(t *testing.T) {
	repo := noopLikeRepo()
	repo.listIdeasLikedByFn = func(_ context.Context, userID uint, limit, offset int) ([]*models.Idea, int64, error) {
		assert.EqualValues(t, 4, userID)
		assert.Equal(t, 10, limit)
		assert.Equal(t, 10, offset)
		return []*models.Idea{{ID: 1}, {ID: 2}}, 12, nil
	}
	svc := NewLikeService(repo, noCache())

	result, err := svc.LikedIdeas(context.Background(), 4, models.PageParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.EqualValues(t, 12, result.Pagination.Total)
	assert.Equal(t, 2, result.Pagination.TotalPages)
	assert.False(t, result.Pagination.HasNext)
	assert.True(t, result.Pagination.HasPrev)
}

func TestCleanupAnonymous_UsesRetentionCutoff(t *testing.T) {
	repo := noopLikeRepo()
	var gotCutoff time.Time
	repo.deleteAnonymousBeforeFn = func(_ context.Context, cutoff time.Time) (int64, error) {
		gotCutoff = cutoff
		return 5, nil
	}
	svc := NewLikeService(repo, noCache())

	removed, err := svc.CleanupAnonymous(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 5, removed)

	wantCutoff := time.Now().Add(-anonymousLikeRetention)
	assert.WithinDuration(t, wantCutoff, gotCutoff, time.Minute)
}

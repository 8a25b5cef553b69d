package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ideanest/internal/identity"
	"ideanest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, n int) *models.User {
	t.Helper()
	u := &models.User{
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: "hashed",
		Name:     fmt.Sprintf("User %d", n),
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedIdea(t *testing.T, db *gorm.DB, title string) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		Title:    title,
		Content:  "an idea with enough content",
		IsPublic: true,
	}
	require.NoError(t, db.Create(idea).Error)
	return idea
}

func userIdentity(u *models.User) identity.Identity {
	return identity.Identity{UserID: u.ID}
}

func anonIdentity(fp string) identity.Identity {
	return identity.Identity{Fingerprint: fp}
}

func likeRowCount(t *testing.T, db *gorm.DB, ideaID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Like{}).Where("idea_id = ?", ideaID).Count(&n).Error)
	return n
}

func storedLikeCount(t *testing.T, db *gorm.DB, ideaID uint) int {
	t.Helper()
	var idea models.Idea
	require.NoError(t, db.First(&idea, ideaID).Error)
	return idea.LikeCount
}

func TestToggle_LikeThenUnlike(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())
	ctx := context.Background()

	user := seedUser(t, db, 1)
	idea := seedIdea(t, db, "toggle pairing")

	liked, count, err := repo.Toggle(ctx, idea.ID, userIdentity(user), "1.2.3.4", "test-agent")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)
	assert.EqualValues(t, 1, likeRowCount(t, db, idea.ID))

	liked, count, err = repo.Toggle(ctx, idea.ID, userIdentity(user), "1.2.3.4", "test-agent")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
	assert.EqualValues(t, 0, likeRowCount(t, db, idea.ID))
	assert.Equal(t, 0, storedLikeCount(t, db, idea.ID))
}

func TestToggle_CounterMatchesRows(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())
	ctx := context.Background()

	idea := seedIdea(t, db, "counter consistency")
	u1 := seedUser(t, db, 1)
	u2 := seedUser(t, db, 2)

	for _, id := range []identity.Identity{
		userIdentity(u1),
		userIdentity(u2),
		anonIdentity("fp-aaaa"),
		anonIdentity("fp-bbbb"),
	} {
		_, _, err := repo.Toggle(ctx, idea.ID, id, "", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 4, storedLikeCount(t, db, idea.ID))
	assert.EqualValues(t, 4, likeRowCount(t, db, idea.ID))

	_, _, err := repo.Toggle(ctx, idea.ID, anonIdentity("fp-aaaa"), "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, storedLikeCount(t, db, idea.ID))
	assert.EqualValues(t, 3, likeRowCount(t, db, idea.ID))
}

func TestToggle_IdentityPathsAreIndependent(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())
	ctx := context.Background()

	idea := seedIdea(t, db, "identity independence")
	user := seedUser(t, db, 1)

	// A user like and a fingerprint like are distinct identities even when
	// they come from the same device.
	_, _, err := repo.Toggle(ctx, idea.ID, userIdentity(user), "9.9.9.9", "ua")
	require.NoError(t, err)
	liked, count, err := repo.Toggle(ctx, idea.ID, anonIdentity("fp-same-device"), "9.9.9.9", "ua")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, count)

	// Unliking one path leaves the other intact.
	_, count, err = repo.Toggle(ctx, idea.ID, userIdentity(user), "9.9.9.9", "ua")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	has, err := repo.Exists(ctx, idea.ID, anonIdentity("fp-same-device"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestToggle_UnknownIdea(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())

	_, _, err := repo.Toggle(context.Background(), 9999, anonIdentity("fp-x"), "", "")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestLikes_DuplicateRowRejectedByIndex(t *testing.T) {
	db := openTestDB(t)
	idea := seedIdea(t, db, "dedup index")
	user := seedUser(t, db, 1)

	first := models.Like{IdeaID: idea.ID, UserID: &user.ID}
	require.NoError(t, db.Create(&first).Error)

	// A second row for the same (idea, user) pair hits the partial unique
	// index; racing toggles lose here rather than double-counting.
	dup := models.Like{IdeaID: idea.ID, UserID: &user.ID}
	err := db.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	fp := "fp-dup"
	require.NoError(t, db.Create(&models.Like{IdeaID: idea.ID, Fingerprint: &fp}).Error)
	err = db.Create(&models.Like{IdeaID: idea.ID, Fingerprint: &fp}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCountForIdea(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())
	ctx := context.Background()

	idea := seedIdea(t, db, "count")
	other := seedIdea(t, db, "other")

	_, _, err := repo.Toggle(ctx, idea.ID, anonIdentity("fp-1"), "", "")
	require.NoError(t, err)
	_, _, err = repo.Toggle(ctx, idea.ID, anonIdentity("fp-2"), "", "")
	require.NoError(t, err)
	_, _, err = repo.Toggle(ctx, other.ID, anonIdentity("fp-1"), "", "")
	require.NoError(t, err)

	n, err := repo.CountForIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestListIdeasLikedBy(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())
	ctx := context.Background()

	user := seedUser(t, db, 1)
	first := seedIdea(t, db, "liked first")
	second := seedIdea(t, db, "liked second")
	seedIdea(t, db, "never liked")

	_, _, err := repo.Toggle(ctx, first.ID, userIdentity(user), "", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, _, err = repo.Toggle(ctx, second.ID, userIdentity(user), "", "")
	require.NoError(t, err)

	ideas, total, err := repo.ListIdeasLikedBy(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, ideas, 2)
	// Most recently liked first.
	assert.Equal(t, second.ID, ideas[0].ID)
	assert.Equal(t, first.ID, ideas[1].ID)
	assert.True(t, ideas[0].Liked)
}

func TestDeleteAnonymousBefore(t *testing.T) {
	db := openTestDB(t)
	repo := NewLikeRepository(db, noCache())
	ctx := context.Background()

	idea := seedIdea(t, db, "cleanup")
	user := seedUser(t, db, 1)

	_, _, err := repo.Toggle(ctx, idea.ID, anonIdentity("fp-stale"), "", "")
	require.NoError(t, err)
	_, _, err = repo.Toggle(ctx, idea.ID, anonIdentity("fp-fresh"), "", "")
	require.NoError(t, err)
	_, _, err = repo.Toggle(ctx, idea.ID, userIdentity(user), "", "")
	require.NoError(t, err)

	// Age one anonymous like past the cutoff.
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Like{}).
		Where("fingerprint = ?", "fp-stale").
		UpdateColumn("created_at", stale).Error)

	removed, err := repo.DeleteAnonymousBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	// The counter followed the deleted row down; user likes are untouched.
	assert.Equal(t, 2, storedLikeCount(t, db, idea.ID))
	assert.EqualValues(t, 2, likeRowCount(t, db, idea.ID))
}

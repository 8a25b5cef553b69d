package server

import (
	"fmt"
	"testing"

	"ideanest/internal/models"
	"ideanest/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s, app := newTestServer(t)
	_, userPair := createUser(t, s, "user@example.com", models.RoleUser)
	_, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/stats", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/admin/stats", nil, userPair.AccessToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/admin/stats", nil, adminPair.AccessToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetPlatformStats_Counts(t *testing.T) {
	s, app := newTestServer(t)
	user, _ := createUser(t, s, "user@example.com", models.RoleUser)
	_, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)
	createIdea(t, s, user.ID, "A counted idea")

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/stats", nil, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats service.PlatformStats
	decodeEnvelope(t, resp, &stats)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalIdeas)
}

func TestAdminListUsers(t *testing.T) {
	s, app := newTestServer(t)
	createUser(t, s, "user@example.com", models.RoleUser)
	_, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodGet, "/api/admin/users?role=user", nil, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result models.Paginated[*models.User]
	decodeEnvelope(t, resp, &result)
	require.Len(t, result.Items, 1)
	assert.Equal(t, models.RoleUser, result.Items[0].Role)

	resp = doJSON(t, app, fiber.MethodGet, "/api/admin/users?role=superuser", nil, adminPair.AccessToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminUpdateUserRole(t *testing.T) {
	s, app := newTestServer(t)
	user, _ := createUser(t, s, "user@example.com", models.RoleUser)
	admin, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/api/admin/users/%d/role", user.ID),
		updateRoleRequest{Role: "owner"}, adminPair.AccessToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/api/admin/users/%d/role", admin.ID),
		updateRoleRequest{Role: "moderator"}, adminPair.AccessToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/api/admin/users/%d/role", user.ID),
		updateRoleRequest{Role: "moderator"}, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.User
	decodeEnvelope(t, resp, &got)
	assert.Equal(t, models.RoleModerator, got.Role)
}

func TestAdminToggleUserStatus(t *testing.T) {
	s, app := newTestServer(t)
	user, userPair := createUser(t, s, "user@example.com", models.RoleUser)
	_, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/api/admin/users/%d/toggle-status", user.ID), nil, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.User
	decodeEnvelope(t, resp, &got)
	assert.False(t, got.IsActive)

	// Deactivation killed the user's sessions.
	resp = doJSON(t, app, fiber.MethodPost, "/api/auth/refresh",
		refreshRequest{RefreshToken: userPair.RefreshToken}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminDeleteUser(t *testing.T) {
	s, app := newTestServer(t)
	user, _ := createUser(t, s, "user@example.com", models.RoleUser)
	admin, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodDelete,
		fmt.Sprintf("/api/admin/users/%d", admin.ID), nil, adminPair.AccessToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodDelete,
		fmt.Sprintf("/api/admin/users/%d", user.ID), nil, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Admin reads still see the soft-deleted account.
	resp = doJSON(t, app, fiber.MethodGet,
		fmt.Sprintf("/api/admin/users/%d", user.ID), nil, adminPair.AccessToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Public reads do not.
	resp = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestModerationQueue_IncludesPrivateIdeas(t *testing.T) {
	s, app := newTestServer(t)
	user, userPair := createUser(t, s, "user@example.com", models.RoleUser)
	_, modPair := createUser(t, s, "mod@example.com", models.RoleModerator)
	private := createIdea(t, s, user.ID, "A reviewed idea")
	require.NoError(t, s.db.Model(private).Update("is_public", false).Error)

	resp := doJSON(t, app, fiber.MethodGet, "/api/moderation/ideas", nil, userPair.AccessToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/api/moderation/ideas", nil, modPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result models.Paginated[*models.Idea]
	decodeEnvelope(t, resp, &result)
	assert.Len(t, result.Items, 1)
}

func TestAdminCleanupLikes(t *testing.T) {
	s, app := newTestServer(t)
	_, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	resp := doJSON(t, app, fiber.MethodPost, "/api/admin/maintenance/cleanup-likes", nil, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Removed int64 `json:"removed"`
	}
	decodeEnvelope(t, resp, &result)
	assert.EqualValues(t, 0, result.Removed)
}

func TestAdminRecomputeTrending(t *testing.T) {
	s, app := newTestServer(t)
	user, _ := createUser(t, s, "user@example.com", models.RoleUser)
	_, adminPair := createUser(t, s, "admin@example.com", models.RoleAdmin)

	idea := createIdea(t, s, user.ID, "A fresh popular idea")
	require.NoError(t, s.db.Model(idea).Update("like_count", 5).Error)

	resp := doJSON(t, app, fiber.MethodPost, "/api/admin/maintenance/recompute-trending", nil, adminPair.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Updated int `json:"updated"`
	}
	decodeEnvelope(t, resp, &result)
	assert.Equal(t, 1, result.Updated)

	var score float64
	require.NoError(t, s.db.Model(&models.Idea{}).
		Where("id = ?", idea.ID).
		Pluck("trending_score", &score).Error)
	assert.Greater(t, score, 0.0)
}

package repository

import (
	"fmt"
	"strings"
	"testing"

	"ideanest/internal/cache"
	"ideanest/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens an isolated in-memory SQLite database with the full schema,
// including the partial unique indexes the like engine depends on.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared in-memory database keeps GORM's pooled connections on the
	// same schema while isolating tests from one another.
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
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// noCache returns a degraded cache whose operations are all no-ops.
func noCache() *cache.Cache {
	return cache.NewWithClient(nil)
}

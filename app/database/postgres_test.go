package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trattoria-andreas/menu-service/models"
)

func TestMigrateCreatesMenuTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.Category{}))
	assert.True(t, db.Migrator().HasTable(&models.Item{}))
	assert.True(t, db.Migrator().HasColumn(&models.Item{}, "image_url"))
	assert.True(t, db.Migrator().HasColumn(&models.Item{}, "featured"))
	assert.True(t, db.Migrator().HasIndex(&models.Category{}, "Name"))

	assert.NoError(t, Ping(context.Background(), db))
}

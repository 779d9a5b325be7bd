package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/dungeon-tracker/internal/config"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func testConfig(dsn string) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "runs.db")

	db, err := Open(testConfig(dsn), zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	assert.NoError(t, Ping(context.Background(), db))
	assert.FileExists(t, dsn)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := testConfig(":memory:")
	cfg.Driver = "oracle"

	_, err := Open(cfg, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrDatabaseConnect))
}

func TestAutoMigrate_Idempotent(t *testing.T) {
	db, err := Open(testConfig(":memory:"), zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, AutoMigrate(ctx, db, zap.NewNop()))
	}

	var rooms []models.Room
	require.NoError(t, db.Order("id").Find(&rooms).Error)
	require.Len(t, rooms, models.RoomCount)
	for i, room := range rooms {
		assert.Equal(t, models.RoomName(i+1), room.Name)
	}

	for _, table := range []string{"rooms", "loot_items", "runs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.RunEntry{}, "idx_runs_room_id"))
}

func TestSeedRooms_FillsMissing(t *testing.T) {
	db, err := Open(testConfig(":memory:"), zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	ctx := context.Background()
	require.NoError(t, db.AutoMigrate(&models.Room{}))
	require.NoError(t, db.Create(&models.Room{Name: "Room 3", Description: "kept"}).Error)

	require.NoError(t, SeedRooms(ctx, db, nil))

	var count int64
	require.NoError(t, db.Model(&models.Room{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)

	// 已有的房间不会被覆盖
	var room3 models.Room
	require.NoError(t, db.Where("name = ?", "Room 3").First(&room3).Error)
	assert.Equal(t, "kept", room3.Description)
}

func TestAutoMigrate_NilDB(t *testing.T) {
	err := AutoMigrate(context.Background(), nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrMigration))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, parseLogLevel("error"))
	assert.Equal(t, gormlogger.Info, parseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel(""))
}

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/dungeon-tracker/internal/database"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 创建内存数据库并完成建表和房间初始化
func SetupTestDB() (*gorm.DB, error) {
	// 内存数据库只能使用单个连接，否则每个连接都是一个新库
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(context.Background(), db, zap.NewNop()); err != nil {
		return nil, err
	}
	return db, nil
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// TestDB 创建测试数据库，测试结束时自动关闭
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(db) })

	return db
}

// SeedLoot 创建测试战利品
func SeedLoot(t *testing.T, db *gorm.DB, names ...string) []*models.LootItem {
	t.Helper()

	items := make([]*models.LootItem, 0, len(names))
	for _, name := range names {
		item := &models.LootItem{Name: name}
		require.NoError(t, db.Create(item).Error)
		items = append(items, item)
	}
	return items
}

// SeedRun 按房间编号顺序写入一次运行记录，lootNames 中空字符串表示无战利品
func SeedRun(t *testing.T, db *gorm.DB, runDate string, doors []models.Door, lootNames []string) {
	t.Helper()

	for i, door := range doors {
		var room models.Room
		require.NoError(t, db.Where("name = ?", models.RoomName(i+1)).First(&room).Error)

		entry := &models.RunEntry{RunDate: runDate, RoomID: room.ID, Door: door}
		if i < len(lootNames) && lootNames[i] != "" {
			var item models.LootItem
			require.NoError(t, db.Where("name = ?", lootNames[i]).First(&item).Error)
			entry.LootID = &item.ID
		}
		require.NoError(t, db.Create(entry).Error)
	}
}

// AssertRowCount 断言表中记录数量
func AssertRowCount(t *testing.T, db *gorm.DB, model interface{}, expected int64) {
	t.Helper()

	var count int64
	err := db.Model(model).Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, expected, count, fmt.Sprintf("%T 记录数量不符", model))
}

package database

import (
	"context"
	"fmt"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrationModels 需要迁移的模型，只做新增建表
var migrationModels = []interface{}{
	&models.Room{},
	&models.LootItem{},
	&models.RunEntry{},
}

// indexes 额外的索引
var indexes = []struct {
	name string
	sql  string
}{
	{"idx_runs_room_id", "CREATE INDEX IF NOT EXISTS idx_runs_room_id ON runs(room_id)"},
	{"idx_runs_run_date", "CREATE INDEX IF NOT EXISTS idx_runs_run_date ON runs(run_date)"},
}

// AutoMigrate 建表、建索引并初始化房间数据，可重复调用
func AutoMigrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return apperrors.New(apperrors.ErrMigration, "数据库未初始化")
	}
	if log == nil {
		log = zap.NewNop()
	}

	db = db.WithContext(ctx)
	log.Debug("开始数据库迁移...")

	for _, model := range migrationModels {
		if err := db.AutoMigrate(model); err != nil {
			log.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return apperrors.Wrapf(err, apperrors.ErrMigration, "迁移 %T 失败", model)
		}
	}

	// 创建索引
	createIndexes(db, log)

	// 初始化房间
	if err := SeedRooms(ctx, db, log); err != nil {
		return err
	}

	log.Debug("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引，失败只记录警告
func createIndexes(db *gorm.DB, log *zap.Logger) {
	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			log.Warn("创建索引失败", zap.String("index", idx.name), zap.Error(err))
		}
	}
}

// SeedRooms 按名称补齐缺失的房间
func SeedRooms(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, room := range models.DefaultRooms() {
			var count int64
			if err := tx.Model(&models.Room{}).Where("name = ?", room.Name).Count(&count).Error; err != nil {
				return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询房间失败")
			}
			if count > 0 {
				continue
			}

			room := room
			if err := tx.Create(&room).Error; err != nil {
				log.Error("创建房间失败", zap.String("name", room.Name), zap.Error(err))
				return apperrors.Wrapf(err, apperrors.ErrDatabaseInsert, "创建房间 %s 失败", room.Name)
			}
			log.Info("创建房间", zap.String("name", room.Name), zap.Uint("id", room.ID))
		}
		return nil
	})
}

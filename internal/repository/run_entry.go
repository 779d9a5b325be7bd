package repository

import (
	"context"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunEntryRepository 运行记录仓储接口，记录只增不改
type RunEntryRepository interface {
	BaseRepository
	BatchCreate(ctx context.Context, entries []*models.RunEntry) error
	CountByDoor(ctx context.Context, roomID uint) (models.DoorCounts, error)
	CountByRoom(ctx context.Context, roomID uint) (int64, error)
	DistinctLootNames(ctx context.Context, roomID uint) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// runEntryRepo 运行记录仓储实现
type runEntryRepo struct {
	*BaseRepo
}

// NewRunEntryRepository 创建运行记录仓储
func NewRunEntryRepository(db *gorm.DB) RunEntryRepository {
	return &runEntryRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// BatchCreate 批量写入运行记录
func (r *runEntryRepo) BatchCreate(ctx context.Context, entries []*models.RunEntry) error {
	if len(entries) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(&entries)
	if result.Error != nil {
		return apperrors.Wrapf(result.Error, apperrors.ErrDatabaseInsert, "写入 %d 条运行记录失败", len(entries))
	}
	if result.RowsAffected != int64(len(entries)) {
		return apperrors.Newf(apperrors.ErrDataIntegrity, "期望写入 %d 条运行记录，实际 %d 条", len(entries), result.RowsAffected)
	}
	return nil
}

// doorCountRow 按门分组的统计行
type doorCountRow struct {
	Door  models.Door
	Count int64
}

// CountByDoor 统计某房间各扇门的次数，没有记录的门为0
func (r *runEntryRepo) CountByDoor(ctx context.Context, roomID uint) (models.DoorCounts, error) {
	var rows []doorCountRow
	err := r.db.WithContext(ctx).
		Model(&models.RunEntry{}).
		Select("door, COUNT(*) AS count").
		Where("room_id = ?", roomID).
		Group("door").
		Scan(&rows).Error
	if err != nil {
		return models.DoorCounts{}, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "统计门选择失败")
	}

	var counts models.DoorCounts
	for _, row := range rows {
		switch row.Door {
		case models.DoorLeft:
			counts.Left = row.Count
		case models.DoorRight:
			counts.Right = row.Count
		}
	}
	return counts, nil
}

// CountByRoom 某房间的访问次数
func (r *runEntryRepo) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RunEntry{}).Where("room_id = ?", roomID).Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "统计房间访问失败")
	}
	return count, nil
}

// DistinctLootNames 某房间获得过的战利品名称，去重并按名称排序
func (r *runEntryRepo) DistinctLootNames(ctx context.Context, roomID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.RunEntry{}).
		Joins("JOIN loot_items ON loot_items.id = runs.loot_id").
		Where("runs.room_id = ?", roomID).
		Distinct().
		Order("loot_items.name").
		Pluck("loot_items.name", &names).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询房间战利品失败")
	}
	return names, nil
}

// Count 运行记录总数
func (r *runEntryRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RunEntry{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "统计运行记录失败")
	}
	return count, nil
}

// WithTx 使用事务
func (r *runEntryRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &runEntryRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"gorm.io/gorm"
)

// LootItemRepository 战利品仓储接口
type LootItemRepository interface {
	BaseRepository
	Create(ctx context.Context, item *models.LootItem) error
	FindByName(ctx context.Context, name string) (*models.LootItem, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]*models.LootItem, error)
	Count(ctx context.Context) (int64, error)
}

// lootItemRepo 战利品仓储实现
type lootItemRepo struct {
	*BaseRepo
}

// NewLootItemRepository 创建战利品仓储
func NewLootItemRepository(db *gorm.DB) LootItemRepository {
	return &lootItemRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 新增战利品，名称冲突返回 ErrDuplicateLoot
func (r *lootItemRepo) Create(ctx context.Context, item *models.LootItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(err, apperrors.ErrDuplicateLoot, item.Name)
		}
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建战利品失败")
	}
	return nil
}

// FindByName 根据名称查找（区分大小写）
func (r *lootItemRepo) FindByName(ctx context.Context, name string) (*models.LootItem, error) {
	var item models.LootItem
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrLootNotFound, name)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询战利品失败")
	}
	return &item, nil
}

// Exists 名称是否已存在
func (r *lootItemRepo) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LootItem{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询战利品失败")
	}
	return count > 0, nil
}

// List 按插入顺序列出所有战利品
func (r *lootItemRepo) List(ctx context.Context) ([]*models.LootItem, error) {
	var items []*models.LootItem
	if err := r.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询战利品列表失败")
	}
	return items, nil
}

// Count 战利品数量
func (r *lootItemRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LootItem{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "统计战利品失败")
	}
	return count, nil
}

// WithTx 使用事务
func (r *lootItemRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &lootItemRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

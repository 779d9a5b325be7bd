package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"gorm.io/gorm"
)

// RoomRepository 房间仓储接口
type RoomRepository interface {
	BaseRepository
	FindByName(ctx context.Context, name string) (*models.Room, error)
	FindByNumber(ctx context.Context, number int) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
	Count(ctx context.Context) (int64, error)
}

// roomRepo 房间仓储实现
type roomRepo struct {
	*BaseRepo
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindByName 根据名称查找房间
func (r *roomRepo) FindByName(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("id").First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrRoomNotFound, name)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询房间失败")
	}
	return &room, nil
}

// FindByNumber 根据房间编号查找，房间名为 "Room n"
func (r *roomRepo) FindByNumber(ctx context.Context, number int) (*models.Room, error) {
	return r.FindByName(ctx, models.RoomName(number))
}

// List 按ID顺序列出所有房间
func (r *roomRepo) List(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	if err := r.db.WithContext(ctx).Order("id").Find(&rooms).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询房间列表失败")
	}
	return rooms, nil
}

// Count 房间数量
func (r *roomRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "统计房间失败")
	}
	return count, nil
}

// WithTx 使用事务
func (r *roomRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

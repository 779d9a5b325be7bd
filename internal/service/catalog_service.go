package service

import (
	"context"
	"strings"
	"time"

	"github.com/wfunc/dungeon-tracker/internal/database"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/logger"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"github.com/wfunc/dungeon-tracker/internal/repository"
	"go.uber.org/zap"
)

// catalogService 目录服务实现
type catalogService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewCatalogService 创建目录服务
func NewCatalogService(repos *repository.Manager, log *zap.Logger) CatalogService {
	return &catalogService{
		repos: repos,
		log:   log,
	}
}

// EnsureSchema 建表并初始化房间，可重复调用
func (s *catalogService) EnsureSchema(ctx context.Context) error {
	return database.AutoMigrate(ctx, s.repos.GetDB(), s.log)
}

// ListRooms 按编号顺序列出房间
func (s *catalogService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.repos.Rooms().List(ctx)
}

// ListLootItems 按插入顺序返回所有战利品名称
func (s *catalogService) ListLootItems(ctx context.Context) ([]string, error) {
	items, err := s.repos.LootItems().List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names, nil
}

// AddLootItem 新增战利品，名称已存在时返回 ErrDuplicateLoot
func (s *catalogService) AddLootItem(ctx context.Context, name string) (*models.LootItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "战利品名称不能为空")
	}

	item := &models.LootItem{Name: name}
	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		exists, err := tx.LootItems().Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.New(apperrors.ErrDuplicateLoot, name)
		}
		return tx.LootItems().Create(ctx, item)
	})
	if err != nil {
		s.log.Warn("新增战利品失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.log.Info("新增战利品", zap.String("name", item.Name), zap.Uint("id", item.ID))
	return item, nil
}

// ResolveRoomID 房间编号转换为房间ID
func (s *catalogService) ResolveRoomID(ctx context.Context, roomNumber int) (uint, error) {
	return resolveRoom(ctx, s.repos.Rooms(), roomNumber)
}

// ResolveLootID 战利品名称转换为ID，空名称返回nil
func (s *catalogService) ResolveLootID(ctx context.Context, name string) (*uint, error) {
	return resolveLoot(ctx, s.repos.LootItems(), name)
}

// SaveRun 在同一事务中解析并写入一次运行的全部记录，任一失败则不写入
func (s *catalogService) SaveRun(ctx context.Context, choices []models.PendingChoice) (int, error) {
	if len(choices) == 0 {
		return 0, apperrors.New(apperrors.ErrEmptyRun)
	}

	start := time.Now()
	entries := make([]*models.RunEntry, 0, len(choices))

	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		rooms := tx.Rooms()
		loot := tx.LootItems()

		for _, choice := range choices {
			if !choice.Door.Valid() {
				return apperrors.Newf(apperrors.ErrInvalidDoor, "房间 %d: %q", choice.RoomNumber, choice.Door)
			}

			roomID, err := resolveRoom(ctx, rooms, choice.RoomNumber)
			if err != nil {
				return err
			}
			lootID, err := resolveLoot(ctx, loot, choice.LootName)
			if err != nil {
				return err
			}

			entries = append(entries, &models.RunEntry{
				RunDate: choice.RunDate,
				RoomID:  roomID,
				Door:    choice.Door,
				LootID:  lootID,
			})
		}

		return tx.RunEntries().BatchCreate(ctx, entries)
	})
	logger.LogDatabaseOperation(s.log, "save_run", models.RunEntry{}.TableName(), time.Since(start), err)
	if err != nil {
		return 0, err
	}

	s.log.Info("保存运行记录",
		zap.String("run_date", choices[0].RunDate),
		zap.Int("rows", len(entries)),
	)
	return len(entries), nil
}

// DoorCounts 某房间左右门的选择次数
func (s *catalogService) DoorCounts(ctx context.Context, roomNumber int) (models.DoorCounts, error) {
	roomID, err := resolveRoom(ctx, s.repos.Rooms(), roomNumber)
	if err != nil {
		return models.DoorCounts{}, err
	}
	return s.repos.RunEntries().CountByDoor(ctx, roomID)
}

// resolveRoom 使用给定仓储解析房间，便于在事务中复用
func resolveRoom(ctx context.Context, rooms repository.RoomRepository, roomNumber int) (uint, error) {
	room, err := rooms.FindByNumber(ctx, roomNumber)
	if err != nil {
		return 0, err
	}
	return room.ID, nil
}

// resolveLoot 使用给定仓储解析战利品
func resolveLoot(ctx context.Context, loot repository.LootItemRepository, name string) (*uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	item, err := loot.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &item.ID, nil
}

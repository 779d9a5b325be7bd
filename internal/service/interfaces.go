package service

import (
	"context"

	"github.com/wfunc/dungeon-tracker/internal/models"
)

// CatalogService 房间与战利品目录，以及运行记录的持久化
type CatalogService interface {
	// 目录
	EnsureSchema(ctx context.Context) error
	ListRooms(ctx context.Context) ([]*models.Room, error)
	ListLootItems(ctx context.Context) ([]string, error)
	AddLootItem(ctx context.Context, name string) (*models.LootItem, error)

	// 名称解析
	ResolveRoomID(ctx context.Context, roomNumber int) (uint, error)
	ResolveLootID(ctx context.Context, name string) (*uint, error)

	// 运行记录
	SaveRun(ctx context.Context, choices []models.PendingChoice) (int, error)
	DoorCounts(ctx context.Context, roomNumber int) (models.DoorCounts, error)
}

// ReportService 历史运行统计
type ReportService interface {
	Generate(ctx context.Context) ([]RoomReport, error)
}

// RoomReport 单个房间的统计结果，可直接用于展示
type RoomReport struct {
	RoomNumber   int     `json:"room_number"`
	RoomLabel    string  `json:"room_label"`
	LootDisplay  string  `json:"loot_display"`
	LeftPct      string  `json:"left_pct"`
	RightPct     string  `json:"right_pct"`
	LeftCount    int64   `json:"left_count"`
	RightCount   int64   `json:"right_count"`
	Visits       int64   `json:"visits"`
	LeftPercent  float64 `json:"left_percent"`
	RightPercent float64 `json:"right_percent"`
}

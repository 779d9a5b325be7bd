package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 事务管理器
	txManager TransactionManager

	// 仓储实例（使用懒加载）
	roomOnce sync.Once
	room     RoomRepository

	lootItemOnce sync.Once
	lootItem     LootItemRepository

	runEntryOnce sync.Once
	runEntry     RunEntryRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// Rooms 获取房间仓储
func (m *Manager) Rooms() RoomRepository {
	m.roomOnce.Do(func() {
		m.room = NewRoomRepository(m.db)
	})
	return m.room
}

// LootItems 获取战利品仓储
func (m *Manager) LootItems() LootItemRepository {
	m.lootItemOnce.Do(func() {
		m.lootItem = NewLootItemRepository(m.db)
	})
	return m.lootItem
}

// RunEntries 获取运行记录仓储
func (m *Manager) RunEntries() RunEntryRepository {
	m.runEntryOnce.Do(func() {
		m.runEntry = NewRunEntryRepository(m.db)
	})
	return m.runEntry
}

// WithTransaction 在事务中执行操作
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.txManager.WithTransaction(ctx, fn)
}

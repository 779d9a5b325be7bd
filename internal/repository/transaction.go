package repository

import (
	"context"
	"fmt"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// WithTransaction 在事务中执行函数，返回错误时整体回滚
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// Transaction 事务包装器
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	// 事务中的仓储实例
	room     RoomRepository
	lootItem LootItemRepository
	runEntry RunEntryRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.Wrap(tx.Error, apperrors.ErrTransaction, "开始事务失败")
	}

	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction 在事务中执行函数
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	// 确保事务被处理
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !tx.committed && !tx.rolledback {
			_ = tx.Rollback()
		}
	}()

	// 执行业务逻辑，原样返回业务错误
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	// 提交事务
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction, "提交事务失败")
	}
	return nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}

	t.rolledback = true
	return nil
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// Context 事务绑定的上下文
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// Rooms 获取事务中的房间仓储
func (t *Transaction) Rooms() RoomRepository {
	if t.room == nil {
		t.room = &roomRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.room
}

// LootItems 获取事务中的战利品仓储
func (t *Transaction) LootItems() LootItemRepository {
	if t.lootItem == nil {
		t.lootItem = &lootItemRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.lootItem
}

// RunEntries 获取事务中的运行记录仓储
func (t *Transaction) RunEntries() RunEntryRepository {
	if t.runEntry == nil {
		t.runEntry = &runEntryRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.runEntry
}

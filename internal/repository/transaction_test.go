package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
)

func TestTransactionManager_Begin(t *testing.T) {
	db := TestDB(t)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	// 开始事务
	tx, err := manager.Begin(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tx)
	assert.NotNil(t, tx.GetDB())
	assert.Equal(t, ctx, tx.Context())

	// 提交事务
	require.NoError(t, tx.Commit())

	// 重复提交和提交后回滚都应失败
	assert.Error(t, tx.Commit())
	assert.Error(t, tx.Rollback())
}

func TestTransactionManager_WithTransaction(t *testing.T) {
	db := TestDB(t)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	// 成功的事务
	err := manager.WithTransaction(ctx, func(tx *Transaction) error {
		room, err := tx.Rooms().FindByNumber(ctx, 1)
		if err != nil {
			return err
		}
		if err := tx.LootItems().Create(ctx, &models.LootItem{Name: "Gold Coin"}); err != nil {
			return err
		}
		return tx.RunEntries().BatchCreate(ctx, []*models.RunEntry{
			{RunDate: "2024-01-01", RoomID: room.ID, Door: models.DoorLeft},
		})
	})
	require.NoError(t, err)

	// 验证数据已创建
	AssertRowCount(t, db, &models.LootItem{}, 1)
	AssertRowCount(t, db, &models.RunEntry{}, 1)
}

func TestTransactionManager_Rollback(t *testing.T) {
	db := TestDB(t)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	// 失败的事务
	businessErr := errors.New("业务错误")
	err := manager.WithTransaction(ctx, func(tx *Transaction) error {
		if err := tx.LootItems().Create(ctx, &models.LootItem{Name: "Ruby"}); err != nil {
			return err
		}
		return businessErr
	})
	assert.ErrorIs(t, err, businessErr)

	// 验证数据已回滚
	AssertRowCount(t, db, &models.LootItem{}, 0)
}

func TestTransactionManager_DomainErrorPassesThrough(t *testing.T) {
	db := TestDB(t)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	err := manager.WithTransaction(ctx, func(tx *Transaction) error {
		_, err := tx.LootItems().FindByName(ctx, "Missing")
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrLootNotFound))
}

func TestTransactionManager_PanicRollsBack(t *testing.T) {
	db := TestDB(t)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = manager.WithTransaction(ctx, func(tx *Transaction) error {
			_ = tx.LootItems().Create(ctx, &models.LootItem{Name: "Emerald"})
			panic("boom")
		})
	})

	AssertRowCount(t, db, &models.LootItem{}, 0)
}

func TestManager_LazyRepositories(t *testing.T) {
	db := TestDB(t)
	m := NewManager(db)

	assert.Same(t, m.Rooms(), m.Rooms())
	assert.Same(t, m.LootItems(), m.LootItems())
	assert.Same(t, m.RunEntries(), m.RunEntries())
	assert.Equal(t, db, m.GetDB())
}

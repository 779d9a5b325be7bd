package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
)

func TestLootItemRepository_CreateAndList(t *testing.T) {
	db := TestDB(t)
	repo := NewLootItemRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Ruby", "Gold Coin", "Amulet"} {
		require.NoError(t, repo.Create(ctx, &models.LootItem{Name: name}))
	}

	// 按插入顺序返回
	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Ruby", items[0].Name)
	assert.Equal(t, "Gold Coin", items[1].Name)
	assert.Equal(t, "Amulet", items[2].Name)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLootItemRepository_DuplicateName(t *testing.T) {
	db := TestDB(t)
	repo := NewLootItemRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.LootItem{Name: "Gold Coin"}))

	// 唯一约束冲突转换为业务错误
	err := repo.Create(ctx, &models.LootItem{Name: "Gold Coin"})
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateLoot))

	// 名称区分大小写
	require.NoError(t, repo.Create(ctx, &models.LootItem{Name: "gold coin"}))

	AssertRowCount(t, db, &models.LootItem{}, 2)
}

func TestLootItemRepository_FindByName(t *testing.T) {
	db := TestDB(t)
	SeedLoot(t, db, "Gold Coin")
	repo := NewLootItemRepository(db)
	ctx := context.Background()

	item, err := repo.FindByName(ctx, "Gold Coin")
	require.NoError(t, err)
	assert.Equal(t, "Gold Coin", item.Name)

	_, err = repo.FindByName(ctx, "Silver Coin")
	assert.True(t, apperrors.Is(err, apperrors.ErrLootNotFound))

	exists, err := repo.Exists(ctx, "Gold Coin")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "GOLD COIN")
	require.NoError(t, err)
	assert.False(t, exists)
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
)

func TestRoomRepository_SeededRooms(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	rooms, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 5)
	assert.Equal(t, "Room 1", rooms[0].Name)
	assert.Equal(t, "The first room of the dungeon.", rooms[0].Description)
	assert.Equal(t, "Room 5", rooms[4].Name)
	assert.Equal(t, "The final room of the dungeon.", rooms[4].Description)
}

func TestRoomRepository_FindByNumber(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room, err := repo.FindByNumber(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Room 3", room.Name)

	// 不存在的房间
	_, err = repo.FindByNumber(ctx, 6)
	assert.True(t, apperrors.Is(err, apperrors.ErrRoomNotFound))

	_, err = repo.FindByName(ctx, "room 1")
	assert.True(t, apperrors.Is(err, apperrors.ErrRoomNotFound))
}

func TestRoomRepository_WithTx(t *testing.T) {
	db := TestDB(t)
	repo := NewRoomRepository(db)

	tx := db.Begin()
	defer tx.Rollback()

	txRepo := repo.WithTx(tx).(*roomRepo)
	assert.Equal(t, tx, txRepo.GetDB())
}

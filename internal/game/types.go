package game

import (
	"context"
	"fmt"

	"github.com/wfunc/dungeon-tracker/internal/models"
)

// RecorderState 记录器状态，1..5 表示等待对应房间
type RecorderState int

const (
	// StateReadyToCommit 五个房间都已记录，等待提交
	StateReadyToCommit RecorderState = models.RoomCount + 1
)

// AwaitingRoom 等待第 n 个房间的状态
func AwaitingRoom(n int) RecorderState {
	return RecorderState(n)
}

// Room 等待的房间编号，可提交状态下为0
func (s RecorderState) Room() int {
	if s == StateReadyToCommit {
		return 0
	}
	return int(s)
}

// String 状态名称
func (s RecorderState) String() string {
	if s == StateReadyToCommit {
		return "ready_to_commit"
	}
	return fmt.Sprintf("awaiting_room_%d", int(s))
}

// RunStore 运行记录持久化接口
type RunStore interface {
	// SaveRun 原子写入一次运行的全部选择，返回写入行数
	SaveRun(ctx context.Context, choices []models.PendingChoice) (int, error)
}

package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeStore 记录收到的选择
type fakeStore struct {
	calls [][]models.PendingChoice
	err   error
}

func (s *fakeStore) SaveRun(ctx context.Context, choices []models.PendingChoice) (int, error) {
	s.calls = append(s.calls, choices)
	if s.err != nil {
		return 0, s.err
	}
	return len(choices), nil
}

// blockingStore 在 release 关闭前阻塞写入
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *blockingStore) SaveRun(ctx context.Context, choices []models.PendingChoice) (int, error) {
	close(s.entered)
	<-s.release
	return len(choices), nil
}

type commitResult struct {
	rows int
	err  error
}

func commitAsync(r *Recorder, store RunStore) <-chan commitResult {
	done := make(chan commitResult, 1)
	go func() {
		rows, err := r.Commit(context.Background(), store)
		done <- commitResult{rows, err}
	}()
	return done
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestRecorder() *Recorder {
	return NewRecorder(zap.NewNop(), WithClock(fixedClock(time.Date(2024, 5, 17, 23, 30, 0, 0, time.UTC))), WithLocation(time.UTC))
}

func recordFullRun(t *testing.T, r *Recorder) {
	t.Helper()
	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))
	require.NoError(t, r.RecordChoice(2, models.DoorRight, "Gold Coin"))
	require.NoError(t, r.RecordChoice(3, models.DoorLeft, ""))
	require.NoError(t, r.RecordChoice(4, models.DoorRight, ""))
	require.NoError(t, r.RecordChoice(5, models.DoorRight, ""))
}

func TestRecorder_InitialState(t *testing.T) {
	r := newTestRecorder()

	assert.Equal(t, AwaitingRoom(1), r.State())
	assert.Equal(t, 1, r.AwaitingRoom())
	assert.Empty(t, r.Pending())
	assert.Equal(t, "2024-05-17", r.RunDate())
	assert.NotEmpty(t, r.RunID())
}

func TestRecorder_SequentialProgression(t *testing.T) {
	r := newTestRecorder()

	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))
	assert.Equal(t, 2, r.AwaitingRoom())

	// 跳过房间被拒绝，状态不变
	err := r.RecordChoice(3, models.DoorLeft, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrRoomOutOfOrder))
	assert.Equal(t, 2, r.AwaitingRoom())
	assert.Len(t, r.Pending(), 1)

	// 重复记录同一房间也被拒绝
	err = r.RecordChoice(1, models.DoorRight, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrRoomOutOfOrder))
	assert.Len(t, r.Pending(), 1)
}

func TestRecorder_InvalidDoor(t *testing.T) {
	r := newTestRecorder()

	err := r.RecordChoice(1, models.Door("up"), "")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidDoor))
	assert.Equal(t, 1, r.AwaitingRoom())
	assert.Empty(t, r.Pending())
}

func TestRecorder_FinalRoomUsesSubmitDoor(t *testing.T) {
	r := newTestRecorder()
	for room := 1; room <= 4; room++ {
		require.NoError(t, r.RecordChoice(room, models.DoorLeft, ""))
	}

	// 最后一个房间忽略传入的门
	require.NoError(t, r.RecordChoice(5, models.Door("submit"), " Crown "))
	assert.Equal(t, StateReadyToCommit, r.State())
	assert.Equal(t, 0, r.AwaitingRoom())

	pending := r.Pending()
	require.Len(t, pending, 5)
	assert.Equal(t, models.DoorSubmit, pending[4].Door)
	assert.Equal(t, "Crown", pending[4].LootName)

	// 完成后不能再记录
	err := r.RecordChoice(5, models.DoorRight, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrRunComplete))
	err = r.RecordChoice(1, models.DoorRight, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrRunComplete))
}

func TestRecorder_CommitSuccessResets(t *testing.T) {
	r := newTestRecorder()
	store := &fakeStore{}
	recordFullRun(t, r)
	firstRunID := r.RunID()

	rows, err := r.Commit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 5, rows)

	require.Len(t, store.calls, 1)
	choices := store.calls[0]
	for i, c := range choices {
		assert.Equal(t, i+1, c.RoomNumber)
		assert.Equal(t, "2024-05-17", c.RunDate)
	}
	assert.Equal(t, "Gold Coin", choices[1].LootName)

	// 提交成功后重置
	assert.Equal(t, AwaitingRoom(1), r.State())
	assert.Empty(t, r.Pending())
	assert.NotEqual(t, firstRunID, r.RunID())
}

func TestRecorder_CommitFailureKeepsBuffer(t *testing.T) {
	r := newTestRecorder()
	storeErr := apperrors.New(apperrors.ErrLootNotFound, "Gold Coin")
	store := &fakeStore{err: storeErr}
	recordFullRun(t, r)

	_, err := r.Commit(context.Background(), store)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storeErr))

	// 缓存和状态保持不变，可以修正后重试
	assert.Equal(t, StateReadyToCommit, r.State())
	assert.Len(t, r.Pending(), 5)

	store.err = nil
	rows, err := r.Commit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 5, rows)
}

func TestRecorder_PartialRunCommit(t *testing.T) {
	r := newTestRecorder()
	store := &fakeStore{}

	require.NoError(t, r.RecordChoice(1, models.DoorRight, ""))
	require.NoError(t, r.RecordChoice(2, models.DoorLeft, ""))

	rows, err := r.Commit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
}

func TestRecorder_ResetScenario(t *testing.T) {
	r := newTestRecorder()
	store := &fakeStore{}

	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))
	require.NoError(t, r.RecordChoice(2, models.DoorRight, ""))

	r.Reset()
	assert.Empty(t, r.Pending())
	assert.Equal(t, 1, r.AwaitingRoom())

	_, err := r.Commit(context.Background(), store)
	assert.True(t, apperrors.Is(err, apperrors.ErrEmptyRun))
	assert.Empty(t, store.calls)
}

func TestRecorder_RunDateFixedAtStart(t *testing.T) {
	current := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	r := NewRecorder(nil,
		WithClock(func() time.Time { return current }),
		WithLocation(time.UTC),
		WithDateFormat("02/01/2006"),
	)

	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))
	// 跨日后同一运行仍使用开始时的日期
	current = current.Add(2 * time.Minute)
	require.NoError(t, r.RecordChoice(2, models.DoorLeft, ""))

	for _, c := range r.Pending() {
		assert.Equal(t, "31/01/2024", c.RunDate)
	}

	r.Reset()
	assert.Equal(t, "01/02/2024", r.RunDate())
}

func TestRecorder_OnStateChange(t *testing.T) {
	r := newTestRecorder()

	var transitions []string
	r.OnStateChange(func(from, to RecorderState) {
		// 回调在锁外执行，可以读取状态
		assert.Equal(t, to, r.State())
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))
	r.Reset()

	assert.Equal(t, []string{
		"awaiting_room_1->awaiting_room_2",
		"awaiting_room_2->awaiting_room_1",
	}, transitions)
}

func TestRecorder_ObserversNotBlockedDuringCommit(t *testing.T) {
	r := newTestRecorder()
	recordFullRun(t, r)

	store := newBlockingStore()
	done := commitAsync(r, store)
	<-store.entered

	observed := make(chan struct{})
	go func() {
		assert.Equal(t, StateReadyToCommit, r.State())
		assert.Len(t, r.Pending(), models.RoomCount)
		close(observed)
	}()

	select {
	case <-observed:
	case <-time.After(time.Second):
		t.Fatal("State/Pending blocked while the run was being saved")
	}

	close(store.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, models.RoomCount, res.rows)
	assert.Equal(t, AwaitingRoom(1), r.State())
	assert.Empty(t, r.Pending())
}

func TestRecorder_ResetDuringCommitKeepsNewRun(t *testing.T) {
	r := newTestRecorder()
	recordFullRun(t, r)

	store := newBlockingStore()
	done := commitAsync(r, store)
	<-store.entered

	r.Reset()
	newRunID := r.RunID()
	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))

	close(store.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, models.RoomCount, res.rows)

	// 新一轮不受先前提交影响
	assert.Equal(t, newRunID, r.RunID())
	assert.Equal(t, 2, r.AwaitingRoom())
	assert.Len(t, r.Pending(), 1)
}

func TestRecorder_LogsRunEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewRecorder(zap.New(core), WithClock(fixedClock(time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC))))

	require.NoError(t, r.RecordChoice(1, models.DoorLeft, ""))
	r.Reset()

	recordFullRun(t, r)
	committedID := r.RunID()
	_, err := r.Commit(context.Background(), &fakeStore{})
	require.NoError(t, err)

	entries := logs.FilterMessage("run_event").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "reset", entries[0].ContextMap()["event"])
	assert.Equal(t, "committed", entries[1].ContextMap()["event"])
	assert.Equal(t, committedID, entries[1].ContextMap()["run_id"])

	// 空运行重置不记录事件
	r.Reset()
	assert.Len(t, logs.FilterMessage("run_event").All(), 2)
}

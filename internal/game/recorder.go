package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/logger"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"go.uber.org/zap"
)

// DefaultRunDateFormat 默认运行日期格式
const DefaultRunDateFormat = "2006-01-02"

// Recorder 一次地牢运行的记录状态机，按房间顺序缓存选择，提交时整体写入
type Recorder struct {
	mu      sync.Mutex
	state   RecorderState
	pending []models.PendingChoice
	runDate string
	runID   string
	started time.Time
	logger  *zap.Logger

	now        func() time.Time
	dateFormat string
	location   *time.Location

	// 回调函数
	onStateChange func(from, to RecorderState)
}

// RecorderOption 记录器选项
type RecorderOption func(*Recorder)

// WithClock 指定时钟，用于确定运行日期
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDateFormat 指定运行日期格式
func WithDateFormat(layout string) RecorderOption {
	return func(r *Recorder) {
		if layout != "" {
			r.dateFormat = layout
		}
	}
}

// WithLocation 指定运行日期使用的时区
func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewRecorder 创建记录器，初始等待第一个房间
func NewRecorder(log *zap.Logger, opts ...RecorderOption) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Recorder{
		logger:     log,
		now:        time.Now,
		dateFormat: DefaultRunDateFormat,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.startRun()
	return r
}

// startRun 清空缓存并开始新的运行
func (r *Recorder) startRun() {
	r.started = r.now()
	r.state = AwaitingRoom(1)
	r.pending = nil
	r.runDate = r.started.In(r.location).Format(r.dateFormat)
	r.runID = uuid.NewString()
}

// RecordChoice 记录当前房间的选择，房间必须是正在等待的房间
func (r *Recorder) RecordChoice(room int, door models.Door, lootName string) error {
	r.mu.Lock()

	if r.state == StateReadyToCommit {
		r.mu.Unlock()
		return apperrors.Newf(apperrors.ErrRunComplete, "房间 %d", room)
	}
	if room != r.state.Room() {
		expected := r.state.Room()
		r.mu.Unlock()
		return apperrors.Newf(apperrors.ErrRoomOutOfOrder, "期望房间 %d，实际房间 %d", expected, room)
	}

	if room == models.FinalRoom {
		// 最后一个房间只有提交动作
		door = models.DoorSubmit
	} else if !door.Valid() {
		r.mu.Unlock()
		return apperrors.Newf(apperrors.ErrInvalidDoor, "房间 %d: %q", room, door)
	}

	choice := models.PendingChoice{
		RunDate:    r.runDate,
		RoomNumber: room,
		Door:       door,
		LootName:   strings.TrimSpace(lootName),
	}
	r.pending = append(r.pending, choice)

	from := r.state
	if room == models.FinalRoom {
		r.state = StateReadyToCommit
	} else {
		r.state = AwaitingRoom(room + 1)
	}
	to := r.state
	runID := r.runID
	r.mu.Unlock()

	r.logger.Debug("记录房间选择",
		zap.String("run_id", runID),
		zap.Int("room", room),
		zap.String("door", string(door)),
		zap.String("loot", choice.LootName),
	)
	r.notify(runID, from, to)
	return nil
}

// Reset 丢弃当前运行，重新等待第一个房间
func (r *Recorder) Reset() {
	r.mu.Lock()
	from := r.state
	discarded := len(r.pending)
	oldRunID := r.runID
	r.startRun()
	to := r.state
	r.mu.Unlock()

	if discarded > 0 {
		logger.LogRunEvent(r.logger, "reset", oldRunID, map[string]interface{}{
			"discarded": discarded,
		})
	}
	r.notify(oldRunID, from, to)
}

// Commit 将缓存的选择交给存储写入，失败时保留缓存，成功后重置。
// 写入期间不持有锁；若写入期间运行已被重置，则不再重复重置。
func (r *Recorder) Commit(ctx context.Context, store RunStore) (int, error) {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return 0, apperrors.New(apperrors.ErrEmptyRun)
	}
	choices := make([]models.PendingChoice, len(r.pending))
	copy(choices, r.pending)
	runID := r.runID
	r.mu.Unlock()

	rows, err := store.SaveRun(ctx, choices)
	if err != nil {
		r.logger.Warn("提交运行失败",
			zap.String("run_id", runID),
			zap.Int("choices", len(choices)),
			zap.Error(err),
		)
		return 0, err
	}

	r.mu.Lock()
	if r.runID != runID {
		r.mu.Unlock()
		logger.LogRunEvent(r.logger, "committed", runID, map[string]interface{}{
			"run_date": choices[0].RunDate,
			"rows":     rows,
		})
		return rows, nil
	}
	from := r.state
	unsaved := len(r.pending) - len(choices)
	duration := r.now().Sub(r.started)
	r.startRun()
	to := r.state
	r.mu.Unlock()

	data := map[string]interface{}{
		"run_date": choices[0].RunDate,
		"rows":     rows,
		"duration": duration.String(),
	}
	if unsaved > 0 {
		// 写入期间新增的选择随本轮一起丢弃
		data["discarded"] = unsaved
	}
	logger.LogRunEvent(r.logger, "committed", runID, data)
	r.notify(runID, from, to)
	return rows, nil
}

// notify 在锁外触发状态变更回调
func (r *Recorder) notify(runID string, from, to RecorderState) {
	r.mu.Lock()
	fn := r.onStateChange
	r.mu.Unlock()

	if from != to {
		r.logger.Debug("状态转换",
			zap.String("run_id", runID),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	if fn != nil {
		fn(from, to)
	}
}

// OnStateChange 设置状态变更回调
func (r *Recorder) OnStateChange(fn func(from, to RecorderState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStateChange = fn
}

// State 当前状态
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AwaitingRoom 正在等待的房间编号，可提交时为0
func (r *Recorder) AwaitingRoom() int {
	return r.State().Room()
}

// Pending 已缓存选择的副本
func (r *Recorder) Pending() []models.PendingChoice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.PendingChoice, len(r.pending))
	copy(out, r.pending)
	return out
}

// RunDate 本次运行的日期
func (r *Recorder) RunDate() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runDate
}

// RunID 本次运行的标识，仅用于日志关联
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

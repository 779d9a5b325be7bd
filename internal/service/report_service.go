package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"github.com/wfunc/dungeon-tracker/internal/repository"
	"go.uber.org/zap"
)

const (
	// NoLootDisplay 房间没有任何战利品时的展示文字
	NoLootDisplay = "No loot recorded"
	// NoDoorDisplay 最后一个房间没有门的概念
	NoDoorDisplay = "-"

	defaultLootSeparator = ", "
)

// reportService 统计服务实现
type reportService struct {
	repos         *repository.Manager
	lootSeparator string
	log           *zap.Logger
}

// NewReportService 创建统计服务
func NewReportService(repos *repository.Manager, lootSeparator string, log *zap.Logger) ReportService {
	if lootSeparator == "" {
		lootSeparator = defaultLootSeparator
	}
	return &reportService{
		repos:         repos,
		lootSeparator: lootSeparator,
		log:           log,
	}
}

// Generate 按房间编号 1..5 生成统计
func (s *reportService) Generate(ctx context.Context) ([]RoomReport, error) {
	reports := make([]RoomReport, 0, models.RoomCount)

	for number := 1; number <= models.RoomCount; number++ {
		report, err := s.roomReport(ctx, number)
		if err != nil {
			s.log.Error("生成房间统计失败", zap.Int("room", number), zap.Error(err))
			return nil, err
		}
		reports = append(reports, report)
	}

	s.log.Debug("生成统计报表", zap.Int("rooms", len(reports)))
	return reports, nil
}

// roomReport 单个房间的统计
func (s *reportService) roomReport(ctx context.Context, number int) (RoomReport, error) {
	room, err := s.repos.Rooms().FindByNumber(ctx, number)
	if err != nil {
		return RoomReport{}, err
	}

	runs := s.repos.RunEntries()
	visits, err := runs.CountByRoom(ctx, room.ID)
	if err != nil {
		return RoomReport{}, err
	}
	counts, err := runs.CountByDoor(ctx, room.ID)
	if err != nil {
		return RoomReport{}, err
	}
	names, err := runs.DistinctLootNames(ctx, room.ID)
	if err != nil {
		return RoomReport{}, err
	}

	if counts.Total() != visits {
		return RoomReport{}, apperrors.Newf(apperrors.ErrDataIntegrity,
			"%s 有 %d 次访问，但左右门合计 %d 次", room.Name, visits, counts.Total())
	}

	report := RoomReport{
		RoomNumber:  number,
		RoomLabel:   room.Name,
		LootDisplay: s.lootDisplay(names),
		LeftCount:   counts.Left,
		RightCount:  counts.Right,
		Visits:      visits,
	}

	if number == models.FinalRoom {
		report.LeftPct = NoDoorDisplay
		report.RightPct = NoDoorDisplay
		return report, nil
	}

	report.LeftPercent = percent(counts.Left, visits)
	report.RightPercent = percent(counts.Right, visits)
	report.LeftPct = formatPercent(report.LeftPercent)
	report.RightPct = formatPercent(report.RightPercent)
	return report, nil
}

// lootDisplay 去重排序后拼接战利品名称
func (s *reportService) lootDisplay(names []string) string {
	if len(names) == 0 {
		return NoLootDisplay
	}

	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	sort.Strings(unique)
	return strings.Join(unique, s.lootSeparator)
}

// percent 次数占比，访问为0时为0
func percent(count, visits int64) float64 {
	if visits <= 0 {
		return 0
	}
	return float64(count) / float64(visits) * 100
}

// formatPercent 保留两位小数并带百分号
func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

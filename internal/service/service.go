package service

import (
	"github.com/wfunc/dungeon-tracker/internal/config"
	"github.com/wfunc/dungeon-tracker/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Catalog CatalogService
	Report  ReportService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *config.TrackerConfig, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}

	separator := ""
	if cfg != nil {
		separator = cfg.LootSeparator
	}

	// 初始化仓储
	repos := repository.NewManager(db)

	return &Services{
		Catalog: NewCatalogService(repos, log.Named("catalog")),
		Report:  NewReportService(repos, separator, log.Named("report")),
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wfunc/dungeon-tracker/internal/config"
	"github.com/wfunc/dungeon-tracker/internal/database"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/logger"
	"github.com/wfunc/dungeon-tracker/internal/service"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gorm.io/gorm"
)

// 版本信息，编译时通过 ldflags 注入
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// application 命令行运行所需的依赖
type application struct {
	configPath string
	dsn        string

	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	services *service.Services

	now         func() time.Time
	in          io.Reader
	interactive func() bool
	watch       bool
}

// newApplication 创建使用真实配置、标准输入的应用
func newApplication() *application {
	return &application{
		now: time.Now,
		in:  os.Stdin,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		watch: true,
	}
}

// setup 加载配置、初始化日志和数据库，已注入依赖时直接返回
func (a *application) setup(cmd *cobra.Command) error {
	if a.services != nil {
		return nil
	}

	if err := config.Init(a.configPath); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	cfg := *config.Get()
	if a.dsn != "" {
		cfg.Database.DSN = a.dsn
	}

	if err := logger.Init(&cfg.Log); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	log := logger.GetModuleLogger("cli")

	db, err := database.Open(&cfg.Database, logger.GetModuleLogger("database"))
	if err != nil {
		return err
	}

	services := service.NewServices(db, &cfg.Tracker, logger.GetModuleLogger("tracker"))
	if cfg.Database.AutoMigrate {
		if err := services.Catalog.EnsureSchema(cmd.Context()); err != nil {
			_ = database.Close(db)
			return err
		}
	}

	a.cfg = &cfg
	a.log = log
	a.db = db
	a.services = services
	log.Debug("命令行初始化完成",
		zap.String("command", cmd.CommandPath()),
		zap.String("driver", cfg.Database.Driver),
	)
	return nil
}

// close 释放数据库连接并刷新日志
func (a *application) close() {
	if a.db != nil {
		_ = database.Close(a.db)
	}
	logger.Cleanup()
}

// logger 命令行日志器，未初始化时为空日志器
func (a *application) logger() *zap.Logger {
	if a.log == nil {
		return zap.NewNop()
	}
	return a.log
}

// trackerConfig 地牢记录配置，未加载时使用默认值
func (a *application) trackerConfig() config.TrackerConfig {
	if a.cfg == nil {
		return config.TrackerConfig{}
	}
	return a.cfg.Tracker
}

func newRootCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Dungeon run tracker",
		Long:          "Records five-room dungeon runs and reports per-room door and loot statistics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "path to config file (default ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.dsn, "db", "", "database DSN, overrides the config file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newLootCmd(app))
	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newReportCmd(app))
	cmd.AddCommand(newDoorsCmd(app))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tracker %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func newInitCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema and seed the five rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd); err != nil {
				return err
			}
			if err := database.Ping(cmd.Context(), app.db); err != nil {
				return err
			}
			if err := app.services.Catalog.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			rooms, err := app.services.Catalog.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			return printRooms(cmd.OutOrStdout(), rooms)
		},
	}
}

func execute(app *application, cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		app.reportError(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

// reportError 业务错误直接展示，其余错误记录调用栈并提示为内部错误
func (a *application) reportError(w io.Writer, err error) {
	if apperrors.IsDomain(err) || apperrors.GetCode(err) == apperrors.ErrUnknown {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Internal error: %v\n", err)
	if apperrors.IsCritical(err) {
		fmt.Fprintln(w, "Check the database and config settings (--config, --db).")
	}

	log := a.logger()
	fields := []zap.Field{zap.Int("code", int(apperrors.GetCode(err))), zap.Error(err)}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fields = append(fields, zap.String("stack", appErr.GetStack()))
	}
	log.Error("命令执行失败", fields...)
}

func main() {
	app := newApplication()
	code := execute(app, newRootCmd(app))
	app.close()
	os.Exit(code)
}

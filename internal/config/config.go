package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
)

// Config 全局配置结构体
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// TrackerConfig 地牢记录配置
type TrackerConfig struct {
	RunDateFormat string `mapstructure:"run_date_format"` // Go时间格式，默认 2006-01-02
	Timezone      string `mapstructure:"timezone"`
	LootSeparator string `mapstructure:"loot_separator"` // 报表中战利品名称的连接符
}

// Location 返回运行日期使用的时区
func (c TrackerConfig) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化进程级配置（仅供命令行入口使用）
func Init(configPath string) error {
	var err error
	once.Do(func() {
		var loaded *Config
		v, loaded, err = load(configPath)
		if err != nil {
			return
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})

	return err
}

// Load 读取配置并返回新的实例，不影响全局配置
func Load(configPath string) (*Config, error) {
	_, c, err := load(configPath)
	return c, err
}

// load 构建viper实例并解析配置
func load(configPath string) (*viper.Viper, *Config, error) {
	vp := viper.New()

	// 设置配置文件路径
	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("./config")
		vp.AddConfigPath(".")
	}

	// 设置环境变量前缀
	vp.SetEnvPrefix("DUNGEON_TRACKER")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	// 设置默认值
	setDefaults(vp)

	// 读取配置文件
	if err := vp.ReadInConfig(); err != nil {
		// 如果配置文件不存在，使用默认配置
		var notFound viper.ConfigFileNotFoundError
		var parseErr viper.ConfigParseError
		switch {
		case errors.As(err, &notFound):
		case errors.As(err, &parseErr):
			return nil, nil, apperrors.Wrap(err, apperrors.ErrConfigParse, "解析配置文件失败")
		default:
			return nil, nil, apperrors.Wrap(err, apperrors.ErrConfigLoad, "读取配置文件失败")
		}
	}

	// 解析配置到结构体
	c := &Config{}
	if err := vp.Unmarshal(c); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrConfigParse, "解析配置失败")
	}

	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	return vp, c, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/dungeon_runs.db")
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "file")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "dungeon-tracker.log")
	v.SetDefault("log.file.max_size", 20)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.compress", true)

	// 地牢记录默认配置
	v.SetDefault("tracker.run_date_format", "2006-01-02")
	v.SetDefault("tracker.timezone", "Local")
	v.SetDefault("tracker.loot_separator", ", ")
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "sqlite3", "mysql", "postgres", "postgresql":
	default:
		return apperrors.Newf(apperrors.ErrConfigValidate, "不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return apperrors.New(apperrors.ErrConfigValidate, "数据库连接串不能为空")
	}
	if c.Tracker.RunDateFormat == "" {
		return apperrors.New(apperrors.ErrConfigValidate, "运行日期格式不能为空")
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file", "both", "none":
	default:
		return apperrors.Newf(apperrors.ErrConfigValidate, "不支持的日志输出: %s", c.Log.Output)
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}
	})
	v.WatchConfig()
}

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wfunc/dungeon-tracker/internal/config"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	once   sync.Once
	mu     sync.RWMutex

	// 模块日志器
	moduleLoggers map[string]*zap.Logger
)

// Init 初始化日志系统
func Init(cfg *config.LogConfig) error {
	var err error
	once.Do(func() {
		var (
			l       *zap.Logger
			modules map[string]*zap.Logger
		)
		l, modules, err = build(cfg)
		if err != nil {
			return
		}

		mu.Lock()
		logger = l
		moduleLoggers = modules
		mu.Unlock()
	})

	return err
}

// build 根据配置构建日志器
func build(cfg *config.LogConfig) (*zap.Logger, map[string]*zap.Logger, error) {
	level.SetLevel(parseLevel(cfg.Level))

	// 创建编码器配置
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// 根据格式选择编码器
	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var cores []zapcore.Core

	// 控制台输出
	if sink := consoleSink(cfg.Output); sink != nil {
		cores = append(cores, zapcore.NewCore(encoder, sink, level))
	}

	// 文件输出
	if cfg.Output == "file" || cfg.Output == "both" {
		logDir := cfg.File.Path
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("创建日志目录失败: %w", err)
		}

		// 创建文件写入器（支持日志轮转）
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, cfg.File.Filename),
			MaxSize:    cfg.File.MaxSize,    // MB
			MaxAge:     cfg.File.MaxAge,     // days
			MaxBackups: cfg.File.MaxBackups, // 保留文件数
			Compress:   cfg.File.Compress,   // 是否压缩
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileWriter), level))

		// 创建错误日志文件
		errorWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "error.log"),
			MaxSize:    cfg.File.MaxSize,
			MaxAge:     cfg.File.MaxAge,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(errorWriter), zapcore.ErrorLevel))
	}

	core := zapcore.NewTee(cores...)

	l := zap.New(
		core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	// 初始化模块日志器，与全局共享输出，模块级别只能比全局更严格
	modules := make(map[string]*zap.Logger, len(cfg.Modules))
	for module, levelStr := range cfg.Modules {
		moduleLevel := parseLevel(levelStr)
		modules[module] = zap.New(
			zapcore.NewTee(retarget(cores, moduleLevel)...),
			zap.AddCaller(),
		).Named(module)
	}

	return l, modules, nil
}

// consoleSink 控制台输出目标，both 写到 stderr 以免混入命令行输出
func consoleSink(output string) zapcore.WriteSyncer {
	switch output {
	case "stdout":
		return zapcore.Lock(os.Stdout)
	case "stderr", "both":
		return zapcore.Lock(os.Stderr)
	default:
		return nil
	}
}

// retarget 为模块日志器复制输出核心并应用模块级别
func retarget(cores []zapcore.Core, lvl zapcore.Level) []zapcore.Core {
	out := make([]zapcore.Core, 0, len(cores))
	for _, c := range cores {
		leveled, err := zapcore.NewIncreaseLevelCore(c, lvl)
		if err != nil {
			// 模块级别低于输出核心级别时沿用原核心
			out = append(out, c)
			continue
		}
		out = append(out, leveled)
	}
	return out
}

// parseLevel 解析日志级别
func parseLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger 获取日志器
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// GetModuleLogger 获取模块日志器
func GetModuleLogger(module string) *zap.Logger {
	mu.RLock()
	moduleLogger, ok := moduleLoggers[module]
	mu.RUnlock()

	if ok {
		return moduleLogger
	}

	// 如果模块日志器不存在，返回带模块名的默认日志器
	return GetLogger().WithOptions(zap.AddCallerSkip(-1)).Named(module)
}

// Sync 同步日志缓冲区
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()

	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// LogRunEvent 记录一次地牢运行的事件，l 为空时使用 tracker 模块日志器
func LogRunEvent(l *zap.Logger, event string, runID string, data map[string]interface{}) {
	if l == nil {
		l = GetModuleLogger("tracker")
	}
	l.Info("run_event",
		zap.String("event", event),
		zap.String("run_id", runID),
		zap.Any("data", data),
	)
}

// LogDatabaseOperation 记录数据库操作，业务规则拒绝记为警告，其余失败记为错误
func LogDatabaseOperation(l *zap.Logger, operation string, table string, duration time.Duration, err error) {
	if l == nil {
		l = GetModuleLogger("database")
	}
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Duration("duration", duration),
	}

	switch {
	case err == nil:
		l.Debug("database_operation", fields...)
	case apperrors.IsDomain(err):
		l.Warn("database_operation_rejected", append(fields, zap.Error(err))...)
	default:
		l.Error("database_operation_failed", append(fields, zap.Error(err))...)
	}
}

// SetLevel 动态设置日志级别
func SetLevel(levelStr string) {
	level.SetLevel(parseLevel(levelStr))
}

// Level 返回当前全局日志级别
func Level() zapcore.Level {
	return level.Level()
}

// Cleanup 清理日志资源
func Cleanup() {
	if err := Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
	}
}

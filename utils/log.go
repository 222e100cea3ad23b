package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Log struct {
	*slog.LevelVar
	*slog.Logger
}

// Logger 进程级日志实例, 输出到 stderr, 避免与命令输出混在一起
var Logger *Log

func init() {
	Logger = NewLog(os.Stderr)
	Logger.SetLogLevel("error") // 默认只输出错误
}

// NewLog 创建写入 w 的日志实例, 时间字段统一命名为 timestamp
func NewLog(w io.Writer) *Log {
	logLevel := &slog.LevelVar{}
	opts := &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{Key: "timestamp", Value: slog.TimeValue(a.Value.Time())}
			}
			return a
		},
	}
	return &Log{
		LevelVar: logLevel,
		Logger:   slog.New(slog.NewTextHandler(w, opts)),
	}
}

func (l *Log) SetLogLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l.Set(slog.LevelDebug)
	case "info":
		l.Set(slog.LevelInfo)
	case "warn", "warning":
		l.Set(slog.LevelWarn)
	case "error":
		l.Set(slog.LevelError)
	}
}

// Component 返回带 component 字段的子 logger
func (l *Log) Component(name string) *slog.Logger {
	return l.With("component", name)
}

func (l *Log) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}

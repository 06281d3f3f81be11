package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Plugin = zapcore.Core

// NOTE: 一些option选项是无法覆盖的
func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

// NewStderrPlugin is the default sink. stdout belongs to the controller
// protocol and must never carry log lines.
func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// Lumberjack logger虽然持有File但没有暴露sync方法，所以没办法利用zap的sync特性
// 所以额外返回一个closer，需要保证在进程退出前close以保证写入的内容可以全部刷到到磁盘
func NewFilePlugin(
	filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath

	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

type Config struct {
	Level string
	File  string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Build tees stderr with an optional rotating file. The returned closer
// must be closed before the process exits.
func Build(cfg Config) (*zap.Logger, io.Closer, error) {
	text := cfg.Level
	if text == "" {
		text = "INFO"
	}

	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", text, err)
	}

	plugins := []Plugin{NewStderrPlugin(level)}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		p, c := NewFilePlugin(cfg.File, level)
		plugins = append(plugins, p)
		closer = c
	}

	return NewLogger(zapcore.NewTee(plugins...)), closer, nil
}

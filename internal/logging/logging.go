// Package logging 负责构造 CLI 与 run 层共用的 zerolog logger。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config.Format 支持的取值。
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultLevel：默认只输出 warn 及以上，保证正常运行时 stderr 安静。
const DefaultLevel = "warn"

type Config struct {
	Level  string
	Format string
	Out    io.Writer
}

// New 按 cfg 构造 logger。
// - Level 为空或无法解析：退化为 info
// - Out 为空：写 stderr
// - Format 非 json 时一律使用 ConsoleWriter（人类可读）
func New(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || strings.TrimSpace(cfg.Level) == "" {
		lvl = zerolog.InfoLevel
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Component 返回带 component 字段的子 logger。
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

func ValidFormat(f string) bool {
	switch strings.ToLower(f) {
	case "", FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

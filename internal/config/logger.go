package config

import (
	"io"
	"log/slog"
	"strings"
)

// Logger строит slog-логгер по log-level/log-format. Ошибки уровня уже отсеяны Validate;
// если нет — остаётся info.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package utils

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a text logger at the named level (DEBUG, INFO, WARN,
// ERROR). Unknown names mean INFO.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

package logger

import (
	"log/slog"
	"os"

	"go.uber.org/fx"
)

// Module provides a *slog.LevelVar (info by default) and a *slog.Logger
// writing to stderr. Commands raise the level for --verbose.
var Module = fx.Module("logger", fx.Provide(
	func() *slog.LevelVar { return Level(false) },
	func(level *slog.LevelVar) *slog.Logger { return New(os.Stderr, level) },
))

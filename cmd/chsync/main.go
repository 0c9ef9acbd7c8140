package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseudomuto/chsync/pkg/cmd"
	"github.com/pseudomuto/chsync/pkg/logger"
	"go.uber.org/fx"
)

// Overridden with -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fx.New(
		fx.NopLogger,
		fx.Supply(os.Args),
		fx.Supply(&cmd.Version{Version: version, Commit: commit, Timestamp: date}),
		fx.Provide(func() context.Context { return ctx }),
		logger.Module,
		cmd.Module,
	).Run()
}

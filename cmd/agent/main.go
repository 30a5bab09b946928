package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0x0FACED/zkm/internal/agent"
	"github.com/0x0FACED/zlog"
)

func main() {
	logger, _ := zlog.NewZerologLogger(zlog.LoggerConfig{
		LogLevel: "info",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := agent.New(logger)
	if err := a.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Agent stopped with error")
		os.Exit(1)
	}
}

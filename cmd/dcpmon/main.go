package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/kamaD-y/dcp-ops-monitor/cmd/dcpmon/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/malusev998/rate-sync/cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := &cmd.Config{
		Ctx:        ctx,
		NewService: newService,
	}

	if err := cmd.Execute(config); err != nil {
		stop()
		os.Exit(1)
	}
}

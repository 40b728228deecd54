package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fkcurrie/ledcat-golang/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "ledcat:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stdout, os.Stderr)
	return c.RootCommand().ExecuteContext(ctx)
}

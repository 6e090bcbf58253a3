package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"s3put/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Run(ctx, os.Args[1:])
	stop()

	code := cli.ExitCode(err)
	if err != nil && code != cli.ExitOK {
		fmt.Fprintf(os.Stderr, "s3put: %v\n", err)
	}
	os.Exit(code)
}

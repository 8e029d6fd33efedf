// Command callcache stores values under generated keys and replays the
// recorded call history.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/callcache/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Main(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Package main implements the frencli batch file renamer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/runtime"
)

var (
	// Version is set at build time
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := runtime.NewRootCommand(&runtime.Options{Version: version})
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cmderr.ExitCode(err))
}

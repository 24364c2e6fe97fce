// Package main provides the kumo-wf CLI process entrypoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tau-OS/kumo/internal/app"
)

// main wires process signal handling to the application runner. Cancelling
// the context interrupts a pending watch and closes the shared connection.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

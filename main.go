package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/sitelink-report/cmd"
	"github.com/jonesrussell/sitelink-report/internal/service"
)

// exitAccountsFailed signals a run that completed with at least one failed account.
const exitAccountsFailed = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, service.ErrAccountsFailed) {
		os.Exit(exitAccountsFailed)
	}
	os.Exit(1)
}

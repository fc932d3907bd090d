// Package main provides the entry point for the otherwords CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aman-CERP/otherwords/cmd/otherwords/cmd"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, owerrors.FormatForCLI(err))
		os.Exit(1)
	}
}

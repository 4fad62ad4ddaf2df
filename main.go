// Command lattice-studio applies one natural language request to a project
// directory and writes a bundled preview into its state directory.
//
//	go run . -w ./site -p "add a dark mode toggle"
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Protocol-Lattice/lattice-studio/src"
	"github.com/Protocol-Lattice/lattice-studio/src/config"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(2)
	}
	if !cfg.Headless() {
		fmt.Fprintln(os.Stderr, "❌ --prompt is required; use cmd/lattice-studio for the interactive studio")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := src.OpenServices(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
	err = svc.Headless(ctx, os.Stdout)
	if cerr := svc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

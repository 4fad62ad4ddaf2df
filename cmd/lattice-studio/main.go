// path: cmd/lattice-studio/main.go
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := src.OpenServices(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}

	if cfg.Headless() {
		err = svc.Headless(ctx, os.Stdout)
	} else {
		fmt.Println("⚡ Starting Lattice Studio...")
		err = svc.Interactive(ctx)
	}
	if cerr := svc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

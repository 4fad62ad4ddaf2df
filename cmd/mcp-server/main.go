package main

import (
	"errors"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/Protocol-Lattice/lattice-studio/src"
	"github.com/Protocol-Lattice/lattice-studio/src/config"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	svc, err := src.OpenServices(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	defer svc.Close()

	// Create MCP server
	s := src.NewMCPServer(src.MCPOptions{
		Models:  svc.Registry,
		ModelID: cfg.Model,
		Stack:   cfg.Stack,
		Logger:  svc.Logger,
		Version: version,
	})

	// stdout carries the protocol, so nothing else may write to it.
	if err := server.ServeStdio(s); err != nil {
		svc.Logger.Error("mcp server stopped", "err", err)
		log.Printf("Server error: %v", err)
	}
}

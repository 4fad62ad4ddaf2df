package src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Protocol-Lattice/lattice-studio/src/config"
	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/logging"
	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
	"github.com/Protocol-Lattice/lattice-studio/src/sandbox"
	"github.com/Protocol-Lattice/lattice-studio/src/store"
	"github.com/Protocol-Lattice/lattice-studio/src/terminal"
)

const consoleHistory = 1000

// Services are the process wide dependencies every entry point shares.
type Services struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *store.FileStore
	Registry *llm.Registry

	logs io.Closer
}

// OpenServices opens the log file, the project store and the model registry
// described by cfg.
func OpenServices(cfg *config.Config) (*Services, error) {
	log, closer, err := logging.New(cfg.LogsDir(), slog.LevelInfo)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := llm.NewRegistry(cfg.APIKey, cfg.PlanModel, cfg.UTCPPath)
	if custom, err := st.CustomModels(); err != nil {
		log.Warn("custom models unavailable", "err", err)
	} else {
		reg.SetCustomModels(custom)
	}

	log.Info("services ready", "data_dir", cfg.DataDir, "model", cfg.Model, "plan_model", cfg.PlanModel)
	return &Services{Config: cfg, Logger: log, Store: st, Registry: reg, logs: closer}, nil
}

func (s *Services) Close() error {
	return errors.Join(s.Registry.Close(), s.logs.Close())
}

// Headless runs the configured one-shot prompt against the workspace and
// reports the outcome to w.
func (s *Services) Headless(ctx context.Context, w io.Writer) error {
	cfg := s.Config
	res, err := RunHeadless(ctx, HeadlessOptions{
		Workspace: cfg.Workspace,
		Prompt:    cfg.Prompt,
		Stack:     cfg.Stack,
		ModelID:   cfg.Model,
		Models:    s.Registry,
		Logger:    s.Logger,
		Color:     true,
	})
	if err != nil {
		var detailed *DetailedError
		if errors.As(err, &detailed) {
			s.Logger.Error("headless run panicked", "err", detailed.Err, "stack", string(detailed.Stack))
		}
		return err
	}
	PrintHeadless(w, res)
	return nil
}

// Interactive starts the preview server and drives the TUI over the most
// recently modified project.
func (s *Services) Interactive(ctx context.Context) error {
	cfg := s.Config
	term := terminal.New(cfg.CommandDelay, nil)
	defer term.Close()

	logs := sandbox.NewLogBuffer(consoleHistory)
	preview := sandbox.NewServer(logs, s.Logger)
	if _, err := preview.Start(ctx, cfg.PreviewAddr); err != nil {
		return fmt.Errorf("start preview server: %w", err)
	}

	session := pipeline.NewSession(pipeline.Options{
		Store:    s.Store,
		Models:   s.Registry,
		Terminal: term,
		Logger:   s.Logger,
		ModelID:  cfg.Model,
		Stack:    cfg.Stack,
	})
	defer session.Wait()

	if projects, err := s.Store.Projects(); err != nil {
		s.Logger.Warn("listing projects failed", "err", err)
	} else if len(projects) > 0 {
		if err := session.LoadProject(projects[0].ID); err != nil {
			s.Logger.Warn("reopening last project failed", "id", projects[0].ID, "err", err)
		}
	}

	err := Run(ctx, Deps{
		Session:  session,
		Registry: s.Registry,
		Store:    s.Store,
		Terminal: term,
		Preview:  preview,
		Logs:     logs,
		Logger:   s.Logger,
	})
	var detailed *DetailedError
	if errors.As(err, &detailed) {
		s.Logger.Error("tui panicked", "err", detailed.Err, "stack", string(detailed.Stack))
	}
	return err
}

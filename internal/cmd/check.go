package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/protobind/internal/codegen/verify"
	"github.com/Alia5/protobind/internal/log"
	"github.com/Alia5/protobind/internal/telemetry"
)

// Check regenerates the bindings and fails unless they match what is committed.
type Check struct {
	Project `embed:""`
	Git     string `help:"Git executable used to compare with the committed baseline" default:"git" env:"PROTOBIND_GIT"`
}

// Run is called by Kong when the check command is executed.
func (c *Check) Run(logger *slog.Logger, raw log.RawLogger, exp *telemetry.Exporter) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if exp != nil {
		var end func(error)
		ctx, end = exp.StartRun(ctx, "check")
		defer func() { end(err) }()
	}

	p, err := c.pipeline(logger, raw, func(root string) verify.Differ {
		return verify.NewGit(c.Git, root, raw)
	}, exp)
	if err != nil {
		return err
	}

	rep, err := p.Check(ctx)
	if err != nil {
		return err
	}
	logger.Info("Generated bindings are up to date", "state", rep.State, "schemas", len(rep.Schemas))
	return nil
}

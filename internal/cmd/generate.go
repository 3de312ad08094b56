package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Alia5/protobind/internal/log"
	"github.com/Alia5/protobind/internal/telemetry"
)

// Generate regenerates the bindings without comparing them to the baseline.
type Generate struct {
	Project `embed:""`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(kctx *kong.Context, logger *slog.Logger, raw log.RawLogger, exp *telemetry.Exporter) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if exp != nil {
		var end func(error)
		ctx, end = exp.StartRun(ctx, "generate")
		defer func() { end(err) }()
	}

	p, err := g.pipeline(logger, raw, nil, exp)
	if err != nil {
		return err
	}
	rep, err := p.Generate(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(kctx.Stdout, "generated %d files from %d schemas into %s (blake2b-256 %s)\n",
		len(rep.Manifest.Files), len(rep.Schemas), p.Options().OutDir, rep.Manifest.Digest)
	return nil
}

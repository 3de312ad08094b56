// Package generator turns a schema set into checked-in client and server
// bindings by driving an external schema compiler.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Alia5/protobind/internal/codegen/artifact"
	"github.com/Alia5/protobind/internal/codegen/compiler"
	"github.com/Alia5/protobind/internal/codegen/schema"
)

// Config fixes how bindings are generated. Treat it as a value: the
// generator copies it on construction.
type Config struct {
	Client         bool
	Server         bool
	OutDir         string
	Features       []string
	EmitRerunHints bool
	// BaseDir is the directory the compiler runs in. Paths handed to the
	// compiler are made relative to it so no absolute path reaches the output.
	BaseDir string
}

// DefaultConfig is the configuration every run uses: both RPC roles, proto3
// optional fields, full regeneration without change hints.
func DefaultConfig(baseDir, outDir string) Config {
	return Config{
		Client:         true,
		Server:         true,
		OutDir:         outDir,
		Features:       []string{compiler.FeatureProto3Optional},
		EmitRerunHints: false,
		BaseDir:        baseDir,
	}
}

type Generator struct {
	compiler compiler.Compiler
	cfg      Config
	logger   *slog.Logger
}

func New(c compiler.Compiler, cfg Config, logger *slog.Logger) *Generator {
	cfg.Features = append([]string(nil), cfg.Features...)
	return &Generator{compiler: c, cfg: cfg, logger: logger}
}

// Request builds the single compiler invocation for set, with includeDir as
// the import search path.
func (g *Generator) Request(set schema.Set, includeDir string) compiler.Request {
	files := make([]string, len(set))
	for i, f := range set {
		files[i] = g.rel(f)
	}
	return compiler.Request{
		Files:          files,
		IncludePaths:   []string{g.rel(includeDir)},
		OutDir:         g.rel(g.cfg.OutDir),
		Client:         g.cfg.Client,
		Server:         g.cfg.Server,
		Features:       append([]string(nil), g.cfg.Features...),
		EmitRerunHints: g.cfg.EmitRerunHints,
	}
}

// Generate compiles set into the output directory and returns the resulting
// artifact manifest. The compiler writes into a scratch directory next to the
// output, which is then mirrored over it, so bindings of deleted schemas do
// not survive a run. Any compiler failure discards the run: the output
// directory is untouched and no manifest is returned alongside an error.
func (g *Generator) Generate(ctx context.Context, set schema.Set, includeDir string) (*artifact.Manifest, error) {
	outDir := g.abs(g.cfg.OutDir)

	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", parent, err)
	}
	stage, err := os.MkdirTemp(parent, ".protobind-")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(stage)
	stageOut := filepath.Join(stage, "out")
	if err := os.Mkdir(stageOut, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	if len(set) == 0 {
		g.logger.Info("No schema files found; skipping compiler", "include", includeDir)
	} else {
		req := g.Request(set, includeDir)
		req.OutDir = g.rel(stageOut)
		g.logger.Info("Generating bindings",
			"files", len(req.Files),
			"out", g.rel(outDir),
			"client", req.Client,
			"server", req.Server)

		if err := g.compiler.Compile(ctx, req); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory %s: %w", outDir, err)
		}
	}

	removed, err := artifact.Sync(stageOut, outDir)
	if err != nil {
		return nil, err
	}
	for _, f := range removed {
		g.logger.Info("Removed stale binding", "file", f)
	}
	if g.cfg.EmitRerunHints && len(set) > 0 {
		if err := os.Rename(stageOut+".d", outDir+".d"); err != nil {
			return nil, fmt.Errorf("move dependency file: %w", err)
		}
	}

	m, err := artifact.Scan(outDir)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Binding generation complete", "out", g.rel(outDir), "artifacts", len(m.Files), "digest", m.Digest)
	return m, nil
}

func (g *Generator) rel(p string) string {
	if g.cfg.BaseDir == "" || !filepath.IsAbs(p) {
		return p
	}
	base, err := filepath.Abs(g.cfg.BaseDir)
	if err != nil {
		return p
	}
	r, err := filepath.Rel(base, p)
	if err != nil {
		return p
	}
	return r
}

func (g *Generator) abs(p string) string {
	if filepath.IsAbs(p) || g.cfg.BaseDir == "" {
		return p
	}
	return filepath.Join(g.cfg.BaseDir, p)
}

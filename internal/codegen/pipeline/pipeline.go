// Package pipeline runs the generate-then-verify gate: discover schema files,
// regenerate bindings, and fail unless the result matches what is committed.
//
// The three stages run strictly in order on the calling goroutine. The first
// failure ends the run; nothing is retried.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/Alia5/protobind/internal/codegen/artifact"
	"github.com/Alia5/protobind/internal/codegen/compiler"
	"github.com/Alia5/protobind/internal/codegen/generator"
	"github.com/Alia5/protobind/internal/codegen/schema"
	"github.com/Alia5/protobind/internal/codegen/verify"
)

const (
	DefaultProtoDir = "proto"
	DefaultOutDir   = "generated"
)

// Options locates the schema and output directories. ProtoDir and OutDir are
// relative to Root unless absolute.
type Options struct {
	Root     string
	ProtoDir string
	OutDir   string
	Ext      string
}

func (o Options) withDefaults() Options {
	if o.Root == "" {
		o.Root = "."
	}
	if abs, err := filepath.Abs(o.Root); err == nil {
		o.Root = abs
	}
	if o.ProtoDir == "" {
		o.ProtoDir = DefaultProtoDir
	}
	if o.OutDir == "" {
		o.OutDir = DefaultOutDir
	}
	if o.Ext == "" {
		o.Ext = schema.DefaultExt
	}
	return o
}

// Report describes a finished run.
type Report struct {
	State    State
	Schemas  schema.Set
	Manifest *artifact.Manifest
	Result   verify.Result
}

type Pipeline struct {
	opts     Options
	compiler compiler.Compiler
	differ   verify.Differ
	logger   *slog.Logger
	hook     Hook
}

func New(opts Options, c compiler.Compiler, d verify.Differ, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		opts:     opts.withDefaults(),
		compiler: c,
		differ:   d,
		logger:   logger,
		hook:     noopHook{},
	}
}

// SetHook installs h around every stage. A nil hook removes it.
func (p *Pipeline) SetHook(h Hook) {
	if h == nil {
		h = noopHook{}
	}
	p.hook = h
}

func (p *Pipeline) Options() Options { return p.opts }

// Check runs all three stages. It returns a nil error only for a clean result;
// the report is filled in as far as the run got.
func (p *Pipeline) Check(ctx context.Context) (*Report, error) {
	rep, err := p.Generate(ctx)
	if err != nil {
		return rep, err
	}

	scope := p.scope()
	err = p.stage(ctx, StageVerify, rep, func(ctx context.Context) error {
		res, err := verify.New(p.differ, p.logger).Verify(ctx, scope)
		if err != nil {
			return &Error{Kind: VerifierToolError, Stage: StageVerify, Scope: scope, Err: err}
		}
		rep.Result = res
		if !res.Clean {
			return &Error{Kind: DriftDetected, Stage: StageVerify, Scope: scope, Files: res.Files}
		}
		return nil
	})
	if err != nil {
		return rep, err
	}
	rep.State = StateClean
	return rep, nil
}

// Generate runs discovery and generation only.
func (p *Pipeline) Generate(ctx context.Context) (*Report, error) {
	rep := &Report{State: StateStart}
	protoDir := p.path(p.opts.ProtoDir)

	err := p.stage(ctx, StageDiscover, rep, func(context.Context) error {
		set, err := schema.Discover(protoDir, p.opts.Ext)
		if err != nil {
			return &Error{Kind: DiscoveryError, Stage: StageDiscover, Err: err}
		}
		rep.Schemas = set
		p.logger.Info("Discovered schema files", "dir", protoDir, "count", len(set))
		return nil
	})
	if err != nil {
		return rep, err
	}

	err = p.stage(ctx, StageGenerate, rep, func(ctx context.Context) error {
		cfg := generator.DefaultConfig(p.opts.Root, p.opts.OutDir)
		m, err := generator.New(p.compiler, cfg, p.logger).Generate(ctx, rep.Schemas, protoDir)
		if err != nil {
			return &Error{Kind: CompilerError, Stage: StageGenerate, Err: err}
		}
		rep.Manifest = m
		return nil
	})
	return rep, err
}

func (p *Pipeline) stage(ctx context.Context, s Stage, rep *Report, fn func(context.Context) error) error {
	rep.State = s.state()
	p.logger.Debug("Entering stage", "stage", s)

	ctx, token := p.hook.OnStageStart(ctx, s)
	err := fn(ctx)
	p.hook.OnStageEnd(ctx, token, s, err)

	if err != nil {
		rep.State = Outcome(err)
	}
	return err
}

func (p *Pipeline) path(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.opts.Root, dir)
}

// scope is the output directory as the differ sees it: relative to Root.
func (p *Pipeline) scope() string {
	if !filepath.IsAbs(p.opts.OutDir) {
		return filepath.Clean(p.opts.OutDir)
	}
	if rel, err := filepath.Rel(p.opts.Root, p.opts.OutDir); err == nil {
		return rel
	}
	return p.opts.OutDir
}

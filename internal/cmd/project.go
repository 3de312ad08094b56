package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Alia5/protobind/internal/codegen/compiler"
	"github.com/Alia5/protobind/internal/codegen/pipeline"
	"github.com/Alia5/protobind/internal/codegen/verify"
	"github.com/Alia5/protobind/internal/configpaths"
	"github.com/Alia5/protobind/internal/log"
	"github.com/Alia5/protobind/internal/telemetry"
)

// Project locates the schema and generated bindings of a repository.
type Project struct {
	Root     string `help:"Project root (defaults to the directory of the nearest go.mod)" env:"PROTOBIND_ROOT"`
	ProtoDir string `help:"Schema directory, relative to the root" default:"proto" env:"PROTOBIND_PROTO_DIR"`
	OutDir   string `help:"Generated bindings directory, relative to the root" default:"generated" env:"PROTOBIND_OUT_DIR"`
	Ext      string `help:"Schema file extension" default:".proto" env:"PROTOBIND_EXT"`
	Protoc   string `help:"Schema compiler executable" default:"protoc" env:"PROTOBIND_PROTOC"`
}

func (p *Project) resolveRoot() (string, error) {
	if p.Root != "" {
		return p.Root, nil
	}
	root, err := configpaths.ProjectRoot(".")
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return root, nil
}

// pipeline wires protoc and the given differ for this project. A nil differ
// builder is allowed for commands that never verify.
func (p *Project) pipeline(logger *slog.Logger, raw log.RawLogger, differ func(root string) verify.Differ, exp *telemetry.Exporter) (*pipeline.Pipeline, error) {
	root, err := p.resolveRoot()
	if err != nil {
		return nil, err
	}

	var d verify.Differ
	if differ != nil {
		d = differ(root)
	}
	pl := pipeline.New(pipeline.Options{
		Root:     root,
		ProtoDir: p.ProtoDir,
		OutDir:   p.OutDir,
		Ext:      p.Ext,
	}, compiler.NewProtoc(p.Protoc, root, raw), d, logger)

	if exp != nil {
		pl.SetHook(telemetry.NewHook(exp.Config()))
	}
	logger.Debug("Resolved project", "root", root, "proto", p.ProtoDir, "out", p.OutDir)
	return pl, nil
}

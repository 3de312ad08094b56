// Package bindtest runs the protobind freshness gate from a Go test, so a
// repository can keep its checked-in bindings honest with plain go test:
//
//	func TestBindingsAreFresh(t *testing.T) {
//		bindtest.RequireFresh(t, bindtest.Options{})
//	}
package bindtest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/protobind/internal/codegen/compiler"
	"github.com/Alia5/protobind/internal/codegen/pipeline"
	"github.com/Alia5/protobind/internal/codegen/verify"
	"github.com/Alia5/protobind/internal/configpaths"
	"github.com/Alia5/protobind/internal/log"
)

// Options mirrors the protobind check flags. Zero values select the
// conventional layout: proto/ and generated/ under the nearest go.mod.
type Options struct {
	Root     string
	ProtoDir string
	OutDir   string
	Protoc   string
	Git      string

	// Compiler and Differ replace protoc and git when set.
	Compiler compiler.Compiler
	Differ   verify.Differ
}

// RequireFresh regenerates the bindings and fails t unless they match the
// committed copy.
func RequireFresh(t testing.TB, opts Options) {
	t.Helper()
	require.NoError(t, Check(t, opts))
}

// Check runs the gate and returns its error. Tool output and progress go to t.Log.
func Check(t testing.TB, opts Options) error {
	t.Helper()
	root := opts.Root
	if root == "" {
		var err error
		root, err = configpaths.ProjectRoot(".")
		if err != nil {
			return err
		}
	}

	raw := log.NewRaw(testWriter{t})
	c := opts.Compiler
	if c == nil {
		c = compiler.NewProtoc(opts.Protoc, root, raw)
	}
	d := opts.Differ
	if d == nil {
		d = verify.NewGit(opts.Git, root, raw)
	}

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := pipeline.New(pipeline.Options{Root: root, ProtoDir: opts.ProtoDir, OutDir: opts.OutDir}, c, d, logger)
	_, err := p.Check(context.Background())
	return err
}

type testWriter struct{ t testing.TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

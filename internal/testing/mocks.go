package testing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Alia5/protobind/internal/codegen/artifact"
	"github.com/Alia5/protobind/internal/codegen/compiler"
	"github.com/Alia5/protobind/internal/codegen/verify"
)

// FakeCompiler stands in for protoc. For every input foo.proto it writes
// foo.pb.go holding a transcription of the schema, and foo_grpc.pb.go when
// both roles are requested and the schema declares a service. Output depends
// only on schema content, so repeated runs are byte-identical.
type FakeCompiler struct {
	// Dir is where relative request paths are resolved.
	Dir string
	// Missing makes Locate fail as if the compiler were not installed.
	Missing bool
	// Diagnostic, when set, makes Compile fail with this compiler output.
	Diagnostic string

	Requests []compiler.Request
}

func (f *FakeCompiler) Locate() (string, error) {
	if f.Missing {
		return "", &compiler.Error{Kind: compiler.ToolMissing, Tool: "protoc", Err: exec.ErrNotFound}
	}
	return "protoc", nil
}

func (f *FakeCompiler) Compile(_ context.Context, req compiler.Request) error {
	f.Requests = append(f.Requests, req)
	if _, err := f.Locate(); err != nil {
		return err
	}
	if f.Diagnostic != "" {
		return &compiler.Error{Kind: compiler.Rejected, Tool: "protoc", Diagnostic: f.Diagnostic}
	}

	out := f.resolve(req.OutDir)
	for _, file := range req.Files {
		src, err := os.ReadFile(f.resolve(file))
		if err != nil {
			return &compiler.Error{Kind: compiler.Rejected, Tool: "protoc", Diagnostic: fmt.Sprintf("%s: File not found.", file)}
		}
		base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

		var msg bytes.Buffer
		fmt.Fprintf(&msg, "// Code generated by protoc-gen-go. DO NOT EDIT.\n// source: %s\n\n", filepath.Base(file))
		for _, line := range strings.Split(string(src), "\n") {
			fmt.Fprintf(&msg, "// %s\n", line)
		}
		if err := os.WriteFile(filepath.Join(out, base+".pb.go"), msg.Bytes(), 0o644); err != nil {
			return &compiler.Error{Kind: compiler.Failed, Tool: "protoc", Err: err}
		}

		if req.Client && req.Server && strings.Contains(string(src), "service ") {
			svc := fmt.Sprintf("// Code generated by protoc-gen-go-grpc. DO NOT EDIT.\n// source: %s\n", filepath.Base(file))
			if err := os.WriteFile(filepath.Join(out, base+"_grpc.pb.go"), []byte(svc), 0o644); err != nil {
				return &compiler.Error{Kind: compiler.Failed, Tool: "protoc", Err: err}
			}
		}
	}
	return nil
}

func (f *FakeCompiler) resolve(p string) string {
	if filepath.IsAbs(p) || f.Dir == "" {
		return p
	}
	return filepath.Join(f.Dir, p)
}

// FakeDiffer compares a scope with a manifest captured by Commit, the way a
// VCS compares the working tree with its index.
type FakeDiffer struct {
	Dir     string
	Missing bool
	// Fail makes Diff report that the tool ran but did not finish.
	Fail string

	baseline map[string]*artifact.Manifest
	Scopes   []string
}

// Commit records the current content of scope as its baseline.
func (d *FakeDiffer) Commit(scope string) error {
	m, err := artifact.Scan(filepath.Join(d.Dir, scope))
	if err != nil {
		return err
	}
	if d.baseline == nil {
		d.baseline = map[string]*artifact.Manifest{}
	}
	d.baseline[filepath.Clean(scope)] = m
	return nil
}

func (d *FakeDiffer) Locate() (string, error) {
	if d.Missing {
		return "", &verify.ToolError{Tool: "git", Missing: true, Err: exec.ErrNotFound}
	}
	return "git", nil
}

func (d *FakeDiffer) Diff(_ context.Context, scope string) (verify.Result, error) {
	d.Scopes = append(d.Scopes, scope)
	if _, err := d.Locate(); err != nil {
		return verify.Result{}, err
	}
	if d.Fail != "" {
		return verify.Result{}, &verify.ToolError{Tool: "git diff", Diagnostic: d.Fail, Err: fmt.Errorf("exit status 128")}
	}

	current, err := artifact.Scan(filepath.Join(d.Dir, scope))
	if err != nil {
		return verify.Result{}, &verify.ToolError{Tool: "git diff", Err: err}
	}
	base := d.baseline[filepath.Clean(scope)]
	if base == nil {
		base = &artifact.Manifest{}
	}

	var files []string
	for _, p := range base.Diff(current) {
		files = append(files, filepath.ToSlash(filepath.Join(scope, p)))
	}
	return verify.Result{Clean: len(files) == 0, Files: files}, nil
}

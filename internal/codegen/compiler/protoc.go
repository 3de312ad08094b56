package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Alia5/protobind/internal/log"
)

const (
	DefaultProtoc        = "protoc"
	DefaultMessagePlugin = "go"
	DefaultServicePlugin = "go-grpc"
)

// Protoc drives protoc with a message plugin (protoc-gen-go) and a service
// plugin (protoc-gen-go-grpc). The service plugin always emits both RPC
// roles, so requests for a single role are rejected as Unsupported.
type Protoc struct {
	// Path is the protoc executable, resolved through PATH when not absolute.
	Path string
	// Dir is the working directory protoc runs in.
	Dir string
	// MessagePlugin and ServicePlugin name the --<plugin>_out generators.
	MessagePlugin string
	ServicePlugin string
	// PluginOpts are passed to both plugins through --<plugin>_opt.
	PluginOpts []string

	raw      log.RawLogger
	lookPath func(string) (string, error)
}

// NewProtoc returns a Protoc using the Go plugins with source-relative output paths.
func NewProtoc(path, dir string, raw log.RawLogger) *Protoc {
	if path == "" {
		path = DefaultProtoc
	}
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	return &Protoc{
		Path:          path,
		Dir:           dir,
		MessagePlugin: DefaultMessagePlugin,
		ServicePlugin: DefaultServicePlugin,
		PluginOpts:    []string{"paths=source_relative"},
		raw:           raw,
		lookPath:      exec.LookPath,
	}
}

func (p *Protoc) Locate() (string, error) {
	path, err := p.lookPath(p.Path)
	if err != nil {
		return "", &Error{Kind: ToolMissing, Tool: p.Path, Err: err}
	}
	return path, nil
}

// Args renders req as a protoc argument list.
func (p *Protoc) Args(req Request) ([]string, error) {
	if req.OutDir == "" {
		return nil, &Error{Kind: Unsupported, Tool: p.Path, Err: errors.New("output directory is required")}
	}
	if req.Client != req.Server {
		return nil, &Error{
			Kind: Unsupported,
			Tool: p.Path,
			Err:  fmt.Errorf("protoc-gen-%s cannot emit client and server roles separately", p.ServicePlugin),
		}
	}

	args := append([]string{}, req.Features...)
	for _, inc := range req.IncludePaths {
		args = append(args, "--proto_path="+inc)
	}

	args = append(args, p.pluginArgs(p.MessagePlugin, req.OutDir)...)
	if req.Client && req.Server {
		args = append(args, p.pluginArgs(p.ServicePlugin, req.OutDir)...)
	}
	if req.EmitRerunHints {
		args = append(args, "--dependency_out="+filepath.Clean(req.OutDir)+".d")
	}

	return append(args, req.Files...), nil
}

func (p *Protoc) pluginArgs(plugin, out string) []string {
	args := []string{fmt.Sprintf("--%s_out=%s", plugin, out)}
	for _, opt := range p.PluginOpts {
		args = append(args, fmt.Sprintf("--%s_opt=%s", plugin, opt))
	}
	return args
}

func (p *Protoc) Compile(ctx context.Context, req Request) error {
	path, err := p.Locate()
	if err != nil {
		return err
	}
	args, err := p.Args(req)
	if err != nil {
		return err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = p.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	p.raw.Log(p.Path, "stdout", stdout.Bytes())
	p.raw.Log(p.Path, "stderr", stderr.Bytes())
	if runErr == nil {
		return nil
	}

	diag := strings.TrimSpace(stderr.String())
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && exitErr.Exited() {
		return &Error{Kind: Rejected, Tool: p.Path, Diagnostic: diag, Err: runErr}
	}
	return &Error{Kind: Failed, Tool: p.Path, Diagnostic: diag, Err: runErr}
}

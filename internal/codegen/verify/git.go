package verify

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"

	"github.com/Alia5/protobind/internal/log"
)

const DefaultGit = "git"

// Git diffs a scope of the working tree against the index and adds files
// git does not track yet. Ignored files are not reported.
type Git struct {
	// Path is the git executable, resolved through PATH when not absolute.
	Path string
	// Dir is the working directory git runs in; scopes are relative to it.
	Dir string

	raw      log.RawLogger
	lookPath func(string) (string, error)
}

func NewGit(path, dir string, raw log.RawLogger) *Git {
	if path == "" {
		path = DefaultGit
	}
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	return &Git{Path: path, Dir: dir, raw: raw, lookPath: exec.LookPath}
}

func (g *Git) Locate() (string, error) {
	path, err := g.lookPath(g.Path)
	if err != nil {
		return "", &ToolError{Tool: g.Path, Missing: true, Err: err}
	}
	return path, nil
}

func (g *Git) Diff(ctx context.Context, scope string) (Result, error) {
	path, err := g.Locate()
	if err != nil {
		return Result{}, err
	}

	// Exit status 1 from diff --exit-code is the "differences found" signal.
	changed, err := g.run(ctx, path, []int{0, 1},
		"diff", "--name-only", "-z", "--relative", "--exit-code", "--", scope)
	if err != nil {
		return Result{}, err
	}
	untracked, err := g.run(ctx, path, []int{0},
		"ls-files", "-z", "--others", "--exclude-standard", "--", scope)
	if err != nil {
		return Result{}, err
	}

	files := append(changed, untracked...)
	sort.Strings(files)
	return Result{Clean: len(files) == 0, Files: files}, nil
}

func (g *Git) run(ctx context.Context, path string, okCodes []int, args ...string) ([]string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = g.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	g.raw.Log(g.Path, "stdout", stdout.Bytes())
	g.raw.Log(g.Path, "stderr", stderr.Bytes())

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) || !accepted(exitErr.ExitCode(), okCodes) {
			return nil, &ToolError{
				Tool:       g.Path + " " + args[0],
				Diagnostic: strings.TrimSpace(stderr.String()),
				Err:        runErr,
			}
		}
	}
	return names(stdout.Bytes()), nil
}

func accepted(code int, okCodes []int) bool {
	for _, c := range okCodes {
		if c == code {
			return true
		}
	}
	return false
}

// names splits -z output. Paths are taken verbatim: with -z git neither
// quotes nor escapes them.
func names(b []byte) []string {
	var out []string
	for _, n := range bytes.Split(b, []byte{0}) {
		if len(n) > 0 {
			out = append(out, string(n))
		}
	}
	return out
}

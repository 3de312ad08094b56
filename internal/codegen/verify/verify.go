// Package verify checks generated bindings against the committed baseline.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrToolMissing matches a ToolError whose differ could not be found.
	ErrToolMissing = errors.New("diff tool not found")
	// ErrToolFailed matches a ToolError whose differ ran but did not complete.
	ErrToolFailed = errors.New("diff tool failed")
)

// Result is the outcome of comparing a directory with its baseline.
type Result struct {
	Clean bool
	// Files lists the differing paths when not clean: modified, deleted and
	// files present on only one side.
	Files []string
}

// Differ compares a path scope against a version-controlled baseline.
type Differ interface {
	// Locate resolves the differ executable.
	Locate() (string, error)
	// Diff returns clean or dirty-with-files. A non-nil error is always a
	// *ToolError and means no verdict was reached.
	Diff(ctx context.Context, scope string) (Result, error)
}

// ToolError reports that the differ could not produce a verdict.
type ToolError struct {
	Tool       string
	Missing    bool
	Diagnostic string
	Err        error
}

func (e *ToolError) Error() string {
	if e.Missing {
		return fmt.Sprintf("cannot run %s: %v", e.Tool, e.Err)
	}
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool {
	switch target {
	case ErrToolMissing:
		return e.Missing
	case ErrToolFailed:
		return !e.Missing
	}
	return false
}

type Verifier struct {
	differ Differ
	logger *slog.Logger
}

func New(differ Differ, logger *slog.Logger) *Verifier {
	return &Verifier{differ: differ, logger: logger}
}

// Verify compares outDir with its baseline. A tool failure is returned as an
// error; drift is reported through the Result, not as an error.
func (v *Verifier) Verify(ctx context.Context, outDir string) (Result, error) {
	path, err := v.differ.Locate()
	if err != nil {
		return Result{}, err
	}
	v.logger.Debug("Comparing generated output with baseline", "differ", path, "scope", outDir)

	res, err := v.differ.Diff(ctx, outDir)
	if err != nil {
		return Result{}, err
	}
	if res.Clean {
		v.logger.Info("Generated output matches baseline", "scope", outDir)
	} else {
		v.logger.Info("Generated output differs from baseline", "scope", outDir, "files", len(res.Files))
	}
	return res, nil
}

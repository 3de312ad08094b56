// Package compiler defines the contract between the binding generator and an
// external schema compiler, and implements it for protoc.
package compiler

import (
	"context"
	"fmt"
)

// FeatureProto3Optional lets proto3 messages declare explicit field presence
// with the optional keyword.
const FeatureProto3Optional = "--experimental_allow_proto3_optional"

// Request is one compiler invocation.
type Request struct {
	// Files are the schema documents to compile.
	Files []string
	// IncludePaths are searched for imports; every file must live under one.
	IncludePaths []string
	// OutDir receives the generated bindings.
	OutDir string
	// Client and Server select the RPC roles to emit.
	Client bool
	Server bool
	// Features are extra compiler flags, passed through unchanged.
	Features []string
	// EmitRerunHints asks the compiler to write a build-system dependency file.
	EmitRerunHints bool
}

// Compiler locates and invokes a schema compiler.
type Compiler interface {
	// Locate resolves the compiler executable.
	Locate() (string, error)
	// Compile runs the compiler once for req. Failures are *Error values.
	Compile(ctx context.Context, req Request) error
}

// Kind classifies a compiler failure.
type Kind int

const (
	// ToolMissing means the executable could not be found.
	ToolMissing Kind = iota + 1
	// Rejected means the compiler ran and reported an error.
	Rejected
	// Failed means the compiler could not be started or was killed.
	Failed
	// Unsupported means the request asks for something the compiler cannot do.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case ToolMissing:
		return "tool missing"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a compiler failure carrying the compiler's own diagnostic text.
type Error struct {
	Kind       Kind
	Tool       string
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Tool, e.Kind)
	if e.Diagnostic != "" {
		msg += ":\n" + e.Diagnostic
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

package pipeline

import (
	"fmt"
	"strings"
)

// Kind is the failure taxonomy of a run. Every kind is terminal.
type Kind int

const (
	// DiscoveryError: the schema directory or one of its entries was unreadable.
	DiscoveryError Kind = iota + 1
	// CompilerError: the schema compiler rejected the input or failed to run.
	CompilerError
	// VerifierToolError: the diff tool could not be run to a verdict.
	VerifierToolError
	// DriftDetected: the diff tool ran and found differences.
	DriftDetected
)

func (k Kind) String() string {
	switch k {
	case DiscoveryError:
		return "DiscoveryError"
	case CompilerError:
		return "CompilerError"
	case VerifierToolError:
		return "VerifierToolError"
	case DriftDetected:
		return "DriftDetected"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrDiscovery    = &Error{Kind: DiscoveryError}
	ErrCompiler     = &Error{Kind: CompilerError}
	ErrVerifierTool = &Error{Kind: VerifierToolError}
	ErrDrift        = &Error{Kind: DriftDetected}
)

// Error is the single diagnostic a failed run surfaces.
type Error struct {
	Kind  Kind
	Stage Stage
	// Scope is the output directory, set for verifier failures.
	Scope string
	// Files names the differing files for DriftDetected.
	Files []string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	b.WriteString(": ")
	switch e.Kind {
	case DiscoveryError:
		b.WriteString("failed to list schema files")
	case CompilerError:
		b.WriteString("failed to compile schema")
	case VerifierToolError:
		fmt.Fprintf(&b, "failed to run diff tool on %s", e.Scope)
	case DriftDetected:
		fmt.Fprintf(&b, "generated files in %s do not match the schema; regenerate them and commit the result", e.Scope)
		for _, f := range e.Files {
			b.WriteString("\n  ")
			b.WriteString(f)
		}
		return b.String()
	default:
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

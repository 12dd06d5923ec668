package shimbuild

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-shimbuild/graph"
	"github.com/albertocavalcante/go-shimbuild/registry"
	"github.com/albertocavalcante/go-shimbuild/version"
)

// Sentinel errors. Every typed error returned by this module matches one
// of these with errors.Is.
var (
	// ErrUnknownModule: an identifier or selector names no registered module.
	ErrUnknownModule = registry.ErrUnknownModule

	// ErrDuplicateModule: a module identifier was registered twice.
	ErrDuplicateModule = registry.ErrDuplicateModule

	// ErrCyclicDependency: the dependency graph has a cycle.
	ErrCyclicDependency = graph.ErrCyclicDependency

	// ErrMalformedVersion: a version token could not be parsed.
	ErrMalformedVersion = version.ErrMalformed

	// ErrBrokenExclusion: FailOnBroken met an exclusion a kept module needs.
	ErrBrokenExclusion = errors.New("broken exclusion")
)

// Typed errors from the packages underneath, re-exported for errors.As.
type (
	UnknownModuleError   = registry.UnknownModuleError
	DuplicateModuleError = registry.DuplicateModuleError
	CycleError           = graph.CycleError
)

// BrokenExclusionError is returned under FailOnBroken.
type BrokenExclusionError struct {
	// Broken holds one BrokenExclusion diagnostic per affected module.
	Broken []Diagnostic
}

func (e *BrokenExclusionError) Error() string {
	if len(e.Broken) == 1 {
		d := e.Broken[0]
		return fmt.Sprintf("broken exclusion: %s requires excluded module %s", d.Module, d.Related)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d broken exclusions:", len(e.Broken))
	for _, d := range e.Broken {
		fmt.Fprintf(&sb, "\n  - %s requires excluded module %s", d.Module, d.Related)
	}
	return sb.String()
}

// Is makes errors.Is(err, ErrBrokenExclusion) hold.
func (e *BrokenExclusionError) Is(target error) bool {
	return target == ErrBrokenExclusion
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnknownModule):
		return "unknown_module"
	case errors.Is(err, ErrCyclicDependency):
		return "cyclic_dependency"
	case errors.Is(err, ErrBrokenExclusion):
		return "broken_exclusion"
	case errors.Is(err, ErrDuplicateModule):
		return "duplicate_module"
	default:
		return "other"
	}
}

package shimbuild

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind int

const (
	// BrokenExclusion: an excluded module is needed by a module that would
	// otherwise be kept.
	BrokenExclusion DiagnosticKind = iota + 1

	// ExclusionConflict: a module is both excluded and included.
	ExclusionConflict

	// MalformedVersion: a version token was unreadable and was treated as
	// always-required.
	MalformedVersion

	// UnknownEnvironment: a target names an environment with no compat
	// data, so every candidate is required for it.
	UnknownEnvironment
)

var kindNames = map[DiagnosticKind]string{
	BrokenExclusion:    "broken-exclusion",
	ExclusionConflict:  "exclusion-conflict",
	MalformedVersion:   "malformed-version",
	UnknownEnvironment: "unknown-environment",
}

func (k DiagnosticKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Severity ranks a Diagnostic.
type Severity int

const (
	// SeverityNote is informational.
	SeverityNote Severity = iota

	// SeverityWarning means the output differs from what was asked for.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "note"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a recoverable condition recorded during resolution.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`

	// Module is the module the diagnostic is about, if any.
	Module string `json:"module,omitempty"`

	// Related is the other module involved, for example the excluded
	// dependency behind a BrokenExclusion.
	Related string `json:"related,omitempty"`

	// Environment is set for target diagnostics.
	Environment string `json:"environment,omitempty"`

	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Kind.String())
	if d.Module != "" {
		fmt.Fprintf(&b, " %s", d.Module)
	}
	if d.Environment != "" {
		fmt.Fprintf(&b, " [%s]", d.Environment)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

package shimbuild

import (
	"fmt"
	"strings"
)

// Preset names a target specification used when a request lists no
// explicit targets.
type Preset int

const (
	// PresetRequireAll targets no environment, so every candidate module
	// is required. This is the default.
	PresetRequireAll Preset = iota

	// PresetOldest targets every environment in the compat table at the
	// oldest version the table mentions. Only features native in all of
	// those environments are left out.
	PresetOldest

	// PresetNewest targets every environment in the compat table at the
	// newest version the table mentions, which leaves only modules that no
	// released version ships natively.
	PresetNewest
)

var presetNames = map[Preset]string{
	PresetRequireAll: "require-all",
	PresetOldest:     "oldest",
	PresetNewest:     "newest",
}

func (p Preset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Preset(%d)", int(p))
}

// ParsePreset accepts the names printed by Preset.String. The empty string
// is PresetRequireAll.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "require-all", "all":
		return PresetRequireAll, nil
	case "oldest":
		return PresetOldest, nil
	case "newest":
		return PresetNewest, nil
	default:
		return 0, fmt.Errorf("unknown preset %q (want require-all, oldest or newest)", s)
	}
}

// MarshalText encodes the preset by name.
func (p Preset) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names understood by ParsePreset.
func (p *Preset) UnmarshalText(text []byte) error {
	v, err := ParsePreset(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Request is one resolution request.
//
// Exclude, Include and Modules take selectors: an exact module identifier,
// a namespace such as "es.array" or "esnext." or a regular expression
// between slashes. A selector that matches no module fails the request
// with ErrUnknownModule.
type Request struct {
	// Targets maps environment names to version tokens. A non-empty
	// Targets overrides Preset.
	Targets map[string]string `json:"targets,omitempty" yaml:"targets,omitempty"`

	// Preset applies when Targets is empty.
	Preset Preset `json:"preset,omitempty" yaml:"preset,omitempty"`

	// Exclude names modules that must not be emitted.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Include names modules emitted regardless of compat data.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	// Modules restricts the candidate universe. Empty means every
	// registered module. Dependencies of candidates are still pulled in.
	Modules []string `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Reason records why a module is in a result.
type Reason int

const (
	// ReasonUnsupported means some targeted environment lacks the feature.
	ReasonUnsupported Reason = iota + 1

	// ReasonDependency means another included module depends on it.
	ReasonDependency

	// ReasonForced means the request included it explicitly.
	ReasonForced
)

var reasonNames = map[Reason]string{
	ReasonUnsupported: "unsupported",
	ReasonDependency:  "dependency",
	ReasonForced:      "forced",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// MarshalText encodes the reason by name.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of a resolution.
type Result struct {
	// Modules is the load order. Every dependency of a module that is
	// also in Modules appears before it; there are no duplicates.
	Modules []string `json:"modules"`

	// Targets is the effective target specification: canonical
	// environment name to normalized version token.
	Targets map[string]string `json:"targets,omitempty"`

	// Reasons explains each entry of Modules.
	Reasons map[string]Reason `json:"reasons"`

	// Diagnostics lists recoverable conditions met while resolving.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	// Summary counts the stages of resolution.
	Summary Summary `json:"summary"`
}

// Has reports whether id is in the result.
func (r *Result) Has(id string) bool {
	_, ok := r.Reasons[id]
	return ok
}

// DiagnosticsOf returns the diagnostics of the given kind.
func (r *Result) DiagnosticsOf(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Summary counts the stages of a resolution.
type Summary struct {
	// Candidates is the size of the candidate universe.
	Candidates int `json:"candidates"`

	// Seeded is the number of candidates judged unsupported.
	Seeded int `json:"seeded"`

	// Forced is the number of modules included by request.
	Forced int `json:"forced"`

	// Closure is the size of the seed set closed under dependencies.
	Closure int `json:"closure"`

	// Excluded is the number of closure members removed by exclusion.
	Excluded int `json:"excluded"`

	// Dropped is the number of dependents removed with an excluded module.
	Dropped int `json:"dropped"`

	// Restored is the number of excluded modules put back because
	// something kept still needs them.
	Restored int `json:"restored"`

	// Total is len(Result.Modules).
	Total int `json:"total"`
}

// ConflictPolicy decides a module named by both Exclude and Include.
type ConflictPolicy int

const (
	// ForcedWins keeps the module. This is the default.
	ForcedWins ConflictPolicy = iota

	// ExclusionWins drops the module and ignores the inclusion.
	ExclusionWins
)

func (p ConflictPolicy) String() string {
	switch p {
	case ForcedWins:
		return "forced-wins"
	case ExclusionWins:
		return "exclusion-wins"
	default:
		return fmt.Sprintf("ConflictPolicy(%d)", int(p))
	}
}

// ParseConflictPolicy accepts the names printed by ConflictPolicy.String.
// The empty string is ForcedWins.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forced-wins":
		return ForcedWins, nil
	case "exclusion-wins":
		return ExclusionWins, nil
	default:
		return 0, fmt.Errorf("unknown conflict policy %q (want forced-wins or exclusion-wins)", s)
	}
}

// BrokenExclusionPolicy decides what happens when a kept module depends on
// an excluded one.
type BrokenExclusionPolicy int

const (
	// DropDependents removes every module that transitively depends on an
	// excluded module. This is the default.
	DropDependents BrokenExclusionPolicy = iota

	// RestoreExcluded puts the excluded module back.
	RestoreExcluded

	// FailOnBroken fails the request with *BrokenExclusionError.
	FailOnBroken
)

func (p BrokenExclusionPolicy) String() string {
	switch p {
	case DropDependents:
		return "drop-dependents"
	case RestoreExcluded:
		return "restore-excluded"
	case FailOnBroken:
		return "fail"
	default:
		return fmt.Sprintf("BrokenExclusionPolicy(%d)", int(p))
	}
}

// ParseBrokenExclusionPolicy accepts the names printed by
// BrokenExclusionPolicy.String. The empty string is DropDependents.
func ParseBrokenExclusionPolicy(s string) (BrokenExclusionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop-dependents":
		return DropDependents, nil
	case "restore-excluded":
		return RestoreExcluded, nil
	case "fail":
		return FailOnBroken, nil
	default:
		return 0, fmt.Errorf("unknown broken exclusion policy %q (want drop-dependents, restore-excluded or fail)", s)
	}
}

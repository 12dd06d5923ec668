package registry

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-shimbuild/graph"
)

// Entry is one module declaration as authored in a registration file.
type Entry struct {
	// ID is the stable module identifier, for example "es.array.at".
	ID string `json:"id" yaml:"id"`

	// Dependencies must be loaded before this module, in declared order.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Payload is an opaque reference handed to the payload resolver.
	// Defaults to ID when empty.
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`

	// Globals lists the global names the module defines, for diagnostics only.
	Globals []string `json:"globals,omitempty" yaml:"globals,omitempty"`
}

// Module is a registered feature module.
type Module struct {
	ID           string
	Dependencies []string
	Payload      string
	Globals      []string

	// Seq is the registration index, used as the ordering tie-break.
	Seq int
}

var (
	// ErrUnknownModule matches every *UnknownModuleError.
	ErrUnknownModule = errors.New("unknown module")

	// ErrDuplicateModule matches every *DuplicateModuleError.
	ErrDuplicateModule = errors.New("duplicate module")

	// ErrCyclicDependency matches cycle errors returned by New.
	ErrCyclicDependency = graph.ErrCyclicDependency
)

// UnknownModuleError reports an identifier or selector that names no
// registered module.
type UnknownModuleError struct {
	ID string

	// From is the module whose dependency list referenced ID, if any.
	From string
}

func (e *UnknownModuleError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("unknown module %q (dependency of %q)", e.ID, e.From)
	}
	return fmt.Sprintf("unknown module %q", e.ID)
}

// Is makes errors.Is(err, ErrUnknownModule) hold.
func (e *UnknownModuleError) Is(target error) bool {
	return target == ErrUnknownModule
}

// DuplicateModuleError reports an identifier registered twice.
type DuplicateModuleError struct {
	ID string

	// First and Second are the registration indexes of the two entries.
	First, Second int
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("duplicate module %q (entries %d and %d)", e.ID, e.First, e.Second)
}

// Is makes errors.Is(err, ErrDuplicateModule) hold.
func (e *DuplicateModuleError) Is(target error) bool {
	return target == ErrDuplicateModule
}

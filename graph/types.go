package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Spec declares one node for Build.
type Spec struct {
	// ID is the unique node identifier.
	ID string

	// Dependencies must precede ID in any ordering, in declared order.
	Dependencies []string
}

// Node is a read-only view of one node.
type Node struct {
	// ID is the node identifier.
	ID string

	// Seq is the registration index, starting at 0.
	Seq int

	// Dependencies are direct dependencies as declared.
	Dependencies []string

	// Dependents are nodes that directly depend on this one, in registration order.
	Dependents []string
}

// Graph is an immutable DAG. All methods are safe for concurrent use.
type Graph struct {
	ids   []string
	index map[string]int
	deps  [][]int
	rdeps [][]int
}

// Stats summarizes a graph.
type Stats struct {
	// Nodes is the number of nodes.
	Nodes int

	// Edges is the number of dependency edges.
	Edges int

	// Roots is the number of nodes nothing depends on.
	Roots int

	// Leaves is the number of nodes with no dependencies.
	Leaves int

	// MaxDepth is the longest dependency chain, counted in edges.
	MaxDepth int
}

var (
	// ErrCyclicDependency matches every *CycleError.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnknownNode matches every *UnknownNodeError.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode is returned by Build for repeated identifiers.
	ErrDuplicateNode = errors.New("duplicate node")
)

// CycleError reports a dependency cycle. Path starts and ends with the same
// node, for example [a b a].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Path, " -> "))
}

// Is makes errors.Is(err, ErrCyclicDependency) hold.
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// UnknownNodeError reports a reference to an identifier not in the graph.
type UnknownNodeError struct {
	ID string

	// From is the node that referenced ID, if any.
	From string
}

func (e *UnknownNodeError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("unknown node %q (dependency of %q)", e.ID, e.From)
	}
	return fmt.Sprintf("unknown node %q", e.ID)
}

// Is makes errors.Is(err, ErrUnknownNode) hold.
func (e *UnknownNodeError) Is(target error) bool {
	return target == ErrUnknownNode
}

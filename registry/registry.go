package registry

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-shimbuild/graph"
)

// Registry is an immutable catalog of modules. All methods are safe for
// concurrent use.
type Registry struct {
	modules []Module
	index   map[string]int
	graph   *graph.Graph
}

// New builds a Registry from entries in registration order.
//
// Errors, in the order they are checked: *ValidationErrors for malformed
// entries, *DuplicateModuleError, *UnknownModuleError for a dependency on
// an unregistered module, and *graph.CycleError for a dependency cycle.
func New(entries []Entry) (*Registry, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}

	r := &Registry{
		modules: make([]Module, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if first, dup := r.index[e.ID]; dup {
			return nil, &DuplicateModuleError{ID: e.ID, First: first, Second: i}
		}
		r.index[e.ID] = i
		payload := e.Payload
		if payload == "" {
			payload = e.ID
		}
		r.modules[i] = Module{
			ID:           e.ID,
			Dependencies: slices.Clone(e.Dependencies),
			Payload:      payload,
			Globals:      slices.Clone(e.Globals),
			Seq:          i,
		}
	}

	specs := make([]graph.Spec, len(r.modules))
	for i, m := range r.modules {
		for _, dep := range m.Dependencies {
			if _, ok := r.index[dep]; !ok {
				return nil, &UnknownModuleError{ID: dep, From: m.ID}
			}
		}
		specs[i] = graph.Spec{ID: m.ID, Dependencies: m.Dependencies}
	}

	g, err := graph.Build(specs)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	r.graph = g
	return r, nil
}

// MustNew is like New but panics on error. Intended for fixed tables in
// tests and generated code.
func MustNew(entries []Entry) *Registry {
	r, err := New(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Get returns the module registered as id.
func (r *Registry) Get(id string) (Module, error) {
	i, ok := r.index[id]
	if !ok {
		return Module{}, &UnknownModuleError{ID: id}
	}
	return clone(r.modules[i]), nil
}

// Seq returns the registration index of id.
func (r *Registry) Seq(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// DependenciesOf returns the direct dependencies of id in declared order.
func (r *Registry) DependenciesOf(id string) ([]string, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, &UnknownModuleError{ID: id}
	}
	return slices.Clone(r.modules[i].Dependencies), nil
}

// IDs returns every module identifier in registration order.
func (r *Registry) IDs() []string {
	return r.graph.IDs()
}

// All returns every module in registration order.
func (r *Registry) All() []Module {
	out := make([]Module, len(r.modules))
	for i, m := range r.modules {
		out[i] = clone(m)
	}
	return out
}

// Graph returns the dependency graph over all registered modules.
func (r *Registry) Graph() *graph.Graph {
	return r.graph
}

// Match expands a selector into module identifiers in registration order.
//
// A selector is an exact identifier, a namespace (every module whose
// identifier starts with the selector followed by a dot; a trailing dot
// on the selector is optional) or a regular expression between slashes.
// A selector that matches nothing returns *UnknownModuleError.
func (r *Registry) Match(pattern string) ([]string, error) {
	if re, ok, err := compileSelector(pattern); err != nil {
		return nil, err
	} else if ok {
		var out []string
		for _, m := range r.modules {
			if re.MatchString(m.ID) {
				out = append(out, m.ID)
			}
		}
		if len(out) == 0 {
			return nil, &UnknownModuleError{ID: pattern}
		}
		return out, nil
	}

	if !strings.HasSuffix(pattern, ".") {
		if r.Has(pattern) {
			return []string{pattern}, nil
		}
	}
	prefix := strings.TrimSuffix(pattern, ".") + "."
	var out []string
	for _, m := range r.modules {
		if strings.HasPrefix(m.ID, prefix) {
			out = append(out, m.ID)
		}
	}
	if len(out) == 0 {
		return nil, &UnknownModuleError{ID: pattern}
	}
	return out, nil
}

// MatchAll expands every selector and returns the union in registration
// order. A single unmatched selector returns its *UnknownModuleError;
// several return *UnmatchedSelectorsError naming them all.
func (r *Registry) MatchAll(patterns []string) ([]string, error) {
	in := make([]bool, len(r.modules))
	var unmatched []string
	var first error
	for _, p := range patterns {
		ids, err := r.Match(p)
		if err != nil {
			if !errors.Is(err, ErrUnknownModule) {
				return nil, err
			}
			if first == nil {
				first = err
			}
			unmatched = append(unmatched, p)
			continue
		}
		for _, id := range ids {
			in[r.index[id]] = true
		}
	}
	switch len(unmatched) {
	case 0:
	case 1:
		return nil, first
	default:
		return nil, &UnmatchedSelectorsError{Selectors: unmatched}
	}

	var out []string
	for i, ok := range in {
		if ok {
			out = append(out, r.modules[i].ID)
		}
	}
	return out, nil
}

// UnmatchedSelectorsError reports several selectors that matched nothing.
type UnmatchedSelectorsError struct {
	Selectors []string
}

func (e *UnmatchedSelectorsError) Error() string {
	quoted := make([]string, len(e.Selectors))
	for i, s := range e.Selectors {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "unknown modules " + strings.Join(quoted, ", ")
}

// Is makes errors.Is(err, ErrUnknownModule) hold.
func (e *UnmatchedSelectorsError) Is(target error) bool {
	return target == ErrUnknownModule
}

// compileSelector recognizes the /regexp/ form.
func compileSelector(pattern string) (*regexp.Regexp, bool, error) {
	if len(pattern) < 2 || pattern[0] != '/' || pattern[len(pattern)-1] != '/' {
		return nil, false, nil
	}
	re, err := regexp.Compile(pattern[1 : len(pattern)-1])
	if err != nil {
		return nil, false, fmt.Errorf("invalid selector %s: %w", pattern, err)
	}
	return re, true, nil
}

func clone(m Module) Module {
	m.Dependencies = slices.Clone(m.Dependencies)
	m.Globals = slices.Clone(m.Globals)
	return m
}

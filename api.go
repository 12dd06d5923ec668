// Package shimbuild selects and orders the feature modules (polyfills) a
// set of target environments is missing.
//
// Given a compat table (feature -> environment -> minimum native version)
// and a registry of modules with declared dependencies, a Resolver
// computes which modules the targets lack, closes that set under
// dependencies, applies exclusions and forced inclusions and returns a
// deterministic load order. Package bundle renders that order into a
// single artifact.
//
// # Overview
//
// The package builds on these components:
//
//   - version: normalizes and compares version tokens, including sentinels
//   - compat: the immutable compat table
//   - registry: the immutable module catalog, loadable from JSON, YAML or Starlark
//   - graph: the dependency DAG, closure and topological order
//   - bundle: artifact rendering, payload retrieval and minification
//   - manifest: a deterministic record of what a bundle contains
//
// # Quick Start
//
//	store, _ := compat.LoadFile("compat.json")
//	reg, _ := registry.LoadFile("modules.star")
//	resolver, _ := shimbuild.NewResolver(store, reg)
//
//	result, err := resolver.Resolve(ctx, shimbuild.Request{
//	    Targets: map[string]string{"chrome": "80", "safari": "13.1"},
//	    Exclude: []string{"es.typed-array"},
//	})
//
// # Exclusions
//
// Removing a module other modules need leaves a BrokenExclusion diagnostic.
// By default the dependents are dropped too; see WithBrokenExclusionPolicy
// and WithConflictPolicy for the alternatives.
//
// # Thread Safety
//
// All public types in this package are safe for concurrent use.
package shimbuild

import (
	"context"

	"github.com/albertocavalcante/go-shimbuild/compat"
	"github.com/albertocavalcante/go-shimbuild/registry"
)

// Resolve is a one-shot helper that builds a Resolver and runs req.
// Callers resolving several requests should keep a Resolver instead.
func Resolve(ctx context.Context, store *compat.Store, reg *registry.Registry, req Request, opts ...Option) (*Result, error) {
	r, err := NewResolver(store, reg, opts...)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, req)
}

// Load reads a compat data file and one or more registration files and
// returns a Resolver over them. Registration files are concatenated in
// argument order, which is the registration order.
func Load(compatPath string, registryPaths []string, opts ...Option) (*Resolver, error) {
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, err
	}
	store, err := compat.LoadFile(compatPath, compat.WithLogger(cfg.log()))
	if err != nil {
		return nil, err
	}

	reg, err := registry.LoadFiles(registryPaths...)
	if err != nil {
		return nil, err
	}
	return NewResolver(store, reg, opts...)
}

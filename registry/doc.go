// Package registry is the catalog of feature modules.
//
// A Registry is built once from a complete static list of entries and is
// immutable afterwards. Construction fails on duplicate identifiers,
// dependencies on unregistered modules and dependency cycles, so a
// Registry that exists is always safe to resolve against.
//
// # Registration Formats
//
// Entries can be loaded from JSON, YAML or Starlark:
//
//	[
//	  {"id": "es.map.constructor", "payload": "modules/es.map.constructor.js"},
//	  {"id": "es.map.of", "dependencies": ["es.map.constructor"], "payload": "modules/esnext.map.of.js"}
//	]
//
// The Starlark form declares one feature_module call per module:
//
//	feature_module(
//	    name = "es.map.of",
//	    deps = ["es.map.constructor"],
//	    payload = "modules/esnext.map.of.js",
//	    globals = ["Map.of"],
//	)
//
// # Patterns
//
// Match resolves the selectors accepted by resolution requests: an exact
// identifier, a namespace ("es.array" or "es.array." selects every module
// below es.array) or a regular expression written between slashes.
package registry

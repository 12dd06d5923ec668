// Package compat holds the compatibility table: for every feature, the
// minimum version of each environment that ships it natively.
//
// The table is loaded once and never mutated, so a *Store is safe for any
// number of concurrent readers.
//
// # Data Format
//
// The input maps feature identifiers to per-environment version tokens:
//
//	{
//	  "es.array.at":  { "chrome": "92", "safari": "15.4", "deno": "1.12" },
//	  "es.map.of":    { "chrome": "TP" }
//	}
//
// YAML input uses the same shape. Tokens are parsed with package version;
// an entry with a malformed token is dropped and reported, which leaves the
// feature required for that environment.
//
// # Queries
//
//	store, _ := compat.LoadFile("compat.json")
//	store.IsSupported("es.array.at", "chrome", version.MustParse("100")) // true
//	store.IsSupported("es.array.at", "opera", version.MustParse("100"))  // false: no data
package compat

// Package bundle renders an ordered module list into a single script.
//
// Payloads are opaque: a PayloadResolver maps each module's payload
// reference to bytes and the Bundler concatenates them in order without
// inspecting them. Minification is delegated to a Minifier.
//
// # Artifact Layout
//
// A rendered artifact is, in order:
//
//	<banner>                            optional, one comment block
//	!function (undefined) { 'use strict';  isolation preamble, optional
//	/* <module id> */                   one marker line per module
//	<payload>                           followed by a newline if missing
//	}();                                isolation postamble, optional
//
// The isolation wrapper is one enclosing function scope, so helper
// names declared by payloads do not leak into the surrounding program.
// Every line, including the last, ends with "\n".
package bundle

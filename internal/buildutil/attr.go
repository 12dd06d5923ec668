// Package buildutil reads attributes out of Starlark call expressions.
//
// The registration loader declares modules as calls such as
// feature_module(name = "...", deps = [...]); these helpers pull typed
// values out of the parsed calls without evaluating the file.
package buildutil

import (
	"github.com/bazelbuild/buildtools/build"
)

// attr returns the right-hand side of the keyword argument name, or nil.
func attr(call *build.CallExpr, name string) build.Expr {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS
		}
	}
	return nil
}

// String extracts a string attribute from a function call by name.
// If name is empty, the first positional argument is used instead.
// Returns empty string if the attribute is not found or not a string.
func String(call *build.CallExpr, name string) string {
	var expr build.Expr
	if name == "" {
		if len(call.List) == 0 {
			return ""
		}
		expr = call.List[0]
	} else {
		expr = attr(call, name)
	}
	if str, ok := expr.(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

// StringList extracts a list of strings attribute from a function call by name.
// The second result is false when the attribute is present but is not a
// list made only of string literals.
func StringList(call *build.CallExpr, name string) ([]string, bool) {
	expr := attr(call, name)
	if expr == nil {
		return nil, true
	}
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, false
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		str, ok := elem.(*build.StringExpr)
		if !ok {
			return nil, false
		}
		result = append(result, str.Value)
	}
	return result, true
}

// Has reports whether the call passes the keyword argument name.
func Has(call *build.CallExpr, name string) bool {
	return attr(call, name) != nil
}

// AttrNames returns the keyword argument names of a call in source order.
func AttrNames(call *build.CallExpr) []string {
	var names []string
	for _, arg := range call.List {
		if assign, ok := arg.(*build.AssignExpr); ok {
			if lhs, ok := assign.LHS.(*build.Ident); ok {
				names = append(names, lhs.Name)
			}
		}
	}
	return names
}

// Positional returns the number of positional arguments of a call.
func Positional(call *build.CallExpr) int {
	n := 0
	for _, arg := range call.List {
		if _, ok := arg.(*build.AssignExpr); !ok {
			n++
		}
	}
	return n
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Line returns the 1-based source line a call starts on.
func Line(call *build.CallExpr) int {
	start, _ := call.Span()
	return start.Line
}

package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bazelbuild/buildtools/build"
	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-shimbuild/internal/buildutil"
)

// Format selects the encoding of a registration file.
type Format int

const (
	// FormatJSON is a JSON array of entries.
	FormatJSON Format = iota
	// FormatYAML is a YAML sequence of entries.
	FormatYAML
	// FormatStarlark is a file of feature_module calls.
	FormatStarlark
)

// ModuleFunc is the Starlark function that declares one module.
const ModuleFunc = "feature_module"

var starlarkAttrs = []string{"name", "deps", "payload", "globals"}

// FormatForPath picks a Format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".star", ".bzl":
		return FormatStarlark, nil
	default:
		return 0, fmt.Errorf("registry: unsupported registration file extension %q", filepath.Ext(path))
	}
}

// LoadFile reads a registration file and builds a Registry from it.
func LoadFile(path string) (*Registry, error) {
	entries, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return r, nil
}

// LoadFiles reads several registration files and builds one Registry.
// Files are concatenated in argument order, which is the registration
// order, so a module may depend on one declared in an earlier file.
func LoadFiles(paths ...string) (*Registry, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("registry: no registration files given")
	}
	var entries []Entry
	for _, path := range paths {
		e, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	r, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return r, nil
}

// ReadFile decodes the entries of a registration file without building a
// Registry, so several files can be concatenated first.
func ReadFile(path string) ([]Entry, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	entries, err := Decode(filepath.Base(path), data, format)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return entries, nil
}

// Load decodes entries from r and builds a Registry.
func Load(r io.Reader, format Format) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read registration data: %w", err)
	}
	entries, err := Decode("<input>", data, format)
	if err != nil {
		return nil, err
	}
	return New(entries)
}

// Decode parses registration data. name is used in Starlark error positions.
func Decode(name string, data []byte, format Format) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("registration data is empty")
	}
	switch format {
	case FormatJSON:
		var entries []Entry
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode registration JSON: %w", err)
		}
		return entries, nil
	case FormatYAML:
		var entries []Entry
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode registration YAML: %w", err)
		}
		return entries, nil
	case FormatStarlark:
		return decodeStarlark(name, data)
	default:
		return nil, fmt.Errorf("unknown registration format %d", format)
	}
}

func decodeStarlark(name string, data []byte) ([]Entry, error) {
	f, err := build.ParseBzl(name, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	var errs ValidationErrors
	var entries []Entry
	for _, stmt := range f.Stmt {
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			start, _ := stmt.Span()
			errs.Add(fmt.Sprintf("%s:%d", name, start.Line), "only feature_module calls are allowed")
			continue
		}
		pos := fmt.Sprintf("%s:%d", name, buildutil.Line(call))
		if fn := buildutil.FuncName(call); fn != ModuleFunc {
			errs.Add(pos, fmt.Sprintf("unsupported call %q", fn))
			continue
		}

		e, ok := callEntry(call, pos, &errs)
		if ok {
			entries = append(entries, e)
		}
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return entries, nil
}

func callEntry(call *build.CallExpr, pos string, errs *ValidationErrors) (Entry, bool) {
	before := len(errs.Errors)

	for _, a := range buildutil.AttrNames(call) {
		if !slices.Contains(starlarkAttrs, a) {
			errs.Add(pos, fmt.Sprintf("unknown attribute %q", a))
		}
	}

	var e Entry
	switch n := buildutil.Positional(call); {
	case n == 1 && !buildutil.Has(call, "name"):
		e.ID = buildutil.String(call, "")
	case n == 0:
		e.ID = buildutil.String(call, "name")
	default:
		errs.Add(pos, "name must be given once, positionally or as name =")
	}
	if e.ID == "" && len(errs.Errors) == before {
		errs.Add(pos, "name must be a non-empty string")
	}

	var ok bool
	if e.Dependencies, ok = buildutil.StringList(call, "deps"); !ok {
		errs.Add(pos, "deps must be a list of strings")
	}
	if e.Globals, ok = buildutil.StringList(call, "globals"); !ok {
		errs.Add(pos, "globals must be a list of strings")
	}
	if buildutil.Has(call, "payload") {
		if e.Payload = buildutil.String(call, "payload"); e.Payload == "" {
			errs.Add(pos, "payload must be a non-empty string")
		}
	}
	return e, len(errs.Errors) == before
}

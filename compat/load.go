package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a compat data file.
type Format int

const (
	// FormatJSON is the canonical encoding.
	FormatJSON Format = iota
	// FormatYAML accepts the same shape written as YAML.
	FormatYAML
)

// FormatForPath picks a Format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("compat: unsupported data file extension %q", filepath.Ext(path))
	}
}

// LoadFile reads a compat data file, choosing the decoder by extension.
func LoadFile(path string, opts ...Option) (*Store, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("compat: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Load(f, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("compat: %s: %w", path, err)
	}
	return s, nil
}

// Load decodes compat data from r.
func Load(r io.Reader, format Format, opts ...Option) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read compat data: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("compat data is empty")
	}

	table, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return New(table, opts...), nil
}

func decode(data []byte, format Format) (map[string]map[string]string, error) {
	switch format {
	case FormatJSON:
		var raw map[string]map[string]token
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode compat JSON: %w", err)
		}
		table := make(map[string]map[string]string, len(raw))
		for feature, envs := range raw {
			row := make(map[string]string, len(envs))
			for env, t := range envs {
				row[env] = string(t)
			}
			table[feature] = row
		}
		return table, nil
	case FormatYAML:
		var table map[string]map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("decode compat YAML: %w", err)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unknown compat format %d", format)
	}
}

// token accepts "15.4", 15.4 and the JSON booleans. Numbers keep their
// literal spelling so 15.10 stays distinct from 15.1.
type token string

func (t *token) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = token(s)
		return nil
	}
	if s := string(b); s == "true" || s == "false" {
		*t = token(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("version token must be a string or number, got %s", b)
	}
	*t = token(n.String())
	return nil
}

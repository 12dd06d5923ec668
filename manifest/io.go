package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// manifestPermissions is the file mode of written manifests.
const manifestPermissions = 0o644

// Suffix is appended to the bundle name to form the manifest file name.
const Suffix = ".manifest.json"

// FileName returns the manifest file name for a bundle.
func FileName(name string) string {
	return name + Suffix
}

// ReadFile reads and parses a manifest from path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes manifest JSON. Unknown fields and unreadable digests are
// rejected, as is any schema version other than SchemaVersion.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	if err := CheckSchema(m.SchemaVersion); err != nil {
		return nil, err
	}

	if err := m.ArtifactDigest.Validate(); err != nil {
		return nil, fmt.Errorf("artifact digest: %w", err)
	}
	for _, mod := range m.Modules {
		if err := mod.Digest.Validate(); err != nil {
			return nil, fmt.Errorf("module %s digest: %w", mod.ID, err)
		}
	}

	if m.Targets == nil {
		m.Targets = make(map[string]string)
	}
	if m.Modules == nil {
		m.Modules = []Module{}
	}
	if m.Diagnostics == nil {
		m.Diagnostics = []Diagnostic{}
	}
	return &m, nil
}

// WriteFile writes the manifest to path, creating the parent directory.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}
	return os.WriteFile(path, data, manifestPermissions)
}

// WriteTo writes the manifest to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	data, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal encodes the manifest as indented JSON. Map keys are sorted and
// slices keep their order, so equal manifests encode identically.
func (m *Manifest) Marshal() ([]byte, error) {
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("manifest name is empty")
	}

	out := *m
	if out.Targets == nil {
		out.Targets = map[string]string{}
	}
	if out.Modules == nil {
		out.Modules = []Module{}
	}
	if out.Diagnostics == nil {
		out.Diagnostics = []Diagnostic{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

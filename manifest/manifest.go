package manifest

import (
	_ "crypto/sha256" // registers the canonical digest algorithm
	"errors"
	"fmt"
	"strings"

	digest "github.com/opencontainers/go-digest"

	shimbuild "github.com/albertocavalcante/go-shimbuild"
	"github.com/albertocavalcante/go-shimbuild/bundle"
)

// ErrMismatch is returned by Verify when an artifact does not match.
var ErrMismatch = errors.New("manifest mismatch")

// Manifest describes one bundle.
type Manifest struct {
	// SchemaVersion is the manifest format version.
	SchemaVersion int `json:"schemaVersion"`

	// Name is the bundle name, without extension.
	Name string `json:"name"`

	// Targets is the effective target specification of the resolution.
	Targets map[string]string `json:"targets"`

	// Modules lists the bundled modules in load order.
	Modules []Module `json:"modules"`

	// ArtifactDigest is the digest of the whole rendered source.
	ArtifactDigest digest.Digest `json:"artifactDigest"`

	// Diagnostics are the resolution diagnostics, rendered as text.
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Module is one bundled module.
type Module struct {
	ID      string        `json:"id"`
	Payload string        `json:"payload"`
	Reason  string        `json:"reason"`
	Digest  digest.Digest `json:"digest"`
}

// Diagnostic is the recorded form of a shimbuild.Diagnostic.
type Diagnostic struct {
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Module      string `json:"module,omitempty"`
	Related     string `json:"related,omitempty"`
	Environment string `json:"environment,omitempty"`
	Message     string `json:"message"`
}

// New returns an empty manifest at the current schema version.
func New(name string) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		Name:          name,
		Targets:       make(map[string]string),
		Modules:       []Module{},
		Diagnostics:   []Diagnostic{},
	}
}

// FromResult builds the manifest of art, which must have been rendered
// from res.Modules in that order.
func FromResult(name string, res *shimbuild.Result, art *bundle.Artifact) (*Manifest, error) {
	if res == nil || art == nil {
		return nil, fmt.Errorf("manifest %s: result and artifact are required", name)
	}
	if len(art.Sections) != len(res.Modules) {
		return nil, fmt.Errorf("manifest %s: artifact has %d modules, result has %d",
			name, len(art.Sections), len(res.Modules))
	}

	m := New(name)
	for env, v := range res.Targets {
		m.Targets[env] = v
	}
	for i, s := range art.Sections {
		if s.ID != res.Modules[i] {
			return nil, fmt.Errorf("manifest %s: artifact module %d is %s, result has %s",
				name, i, s.ID, res.Modules[i])
		}
		m.Modules = append(m.Modules, Module{
			ID:      s.ID,
			Payload: s.Ref,
			Reason:  res.Reasons[s.ID].String(),
			Digest:  digest.FromBytes(art.Payload(s)),
		})
	}
	m.ArtifactDigest = digest.FromBytes(art.Source)

	for _, d := range res.Diagnostics {
		m.Diagnostics = append(m.Diagnostics, Diagnostic{
			Kind:        d.Kind.String(),
			Severity:    d.Severity.String(),
			Module:      d.Module,
			Related:     d.Related,
			Environment: d.Environment,
			Message:     d.Message,
		})
	}
	return m, nil
}

// IDs returns the module identifiers in load order.
func (m *Manifest) IDs() []string {
	ids := make([]string, len(m.Modules))
	for i, mod := range m.Modules {
		ids[i] = mod.ID
	}
	return ids
}

// Verify checks art against the recorded digests. All differences are
// reported in one error wrapping ErrMismatch.
func (m *Manifest) Verify(art *bundle.Artifact) error {
	var problems []string
	if got := digest.FromBytes(art.Source); got != m.ArtifactDigest {
		problems = append(problems, fmt.Sprintf("artifact digest %s, recorded %s", got, m.ArtifactDigest))
	}
	if len(art.Sections) != len(m.Modules) {
		problems = append(problems, fmt.Sprintf("artifact has %d modules, recorded %d",
			len(art.Sections), len(m.Modules)))
	} else {
		for i, s := range art.Sections {
			rec := m.Modules[i]
			if s.ID != rec.ID {
				problems = append(problems, fmt.Sprintf("module %d is %s, recorded %s", i, s.ID, rec.ID))
				continue
			}
			if got := digest.FromBytes(art.Payload(s)); got != rec.Digest {
				problems = append(problems, fmt.Sprintf("module %s digest %s, recorded %s", s.ID, got, rec.Digest))
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrMismatch, m.Name, strings.Join(problems, "; "))
}

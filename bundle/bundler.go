package bundle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/albertocavalcante/go-shimbuild/registry"
)

// Isolation wrapper written around the modules.
const (
	Preamble  = "!function (undefined) { 'use strict';\n"
	Postamble = "}();\n"
)

// Section locates one module inside an artifact.
type Section struct {
	// ID is the module identifier.
	ID string

	// Ref is the payload reference that was fetched.
	Ref string

	// Start and End delimit the payload bytes in Artifact.Source,
	// excluding the marker line.
	Start, End int
}

// Artifact is a rendered bundle.
type Artifact struct {
	Source   []byte
	Sections []Section
}

// Payload returns the payload bytes of s.
func (a *Artifact) Payload(s Section) []byte {
	return a.Source[s.Start:s.End]
}

// Bundler renders module orders. The zero value is not usable; call New.
type Bundler struct {
	reg     *registry.Registry
	banner  string
	isolate bool
	logger  *slog.Logger
}

// Option configures a Bundler.
type Option func(*Bundler)

// WithBanner sets a comment written at the top of every artifact. Text
// that is not already a comment is wrapped in a block comment.
func WithBanner(text string) Option {
	return func(b *Bundler) {
		b.banner = FormatBanner(text)
	}
}

// WithIsolation enables or disables the enclosing function scope.
// Isolation is on by default.
func WithIsolation(on bool) Option {
	return func(b *Bundler) {
		b.isolate = on
	}
}

// WithLogger sets the logger for per-module debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bundler) {
		b.logger = l
	}
}

// New returns a Bundler that looks payload references up in reg. With a
// nil reg the module identifier is used as the reference.
func New(reg *registry.Registry, opts ...Option) *Bundler {
	b := &Bundler{reg: reg, isolate: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Render fetches each module's payload in order and concatenates them.
// Cancellation is checked before every fetch.
func (b *Bundler) Render(ctx context.Context, order []string, payloads PayloadResolver) (*Artifact, error) {
	var buf bytes.Buffer
	art := &Artifact{Sections: make([]Section, 0, len(order))}

	if b.banner != "" {
		buf.WriteString(b.banner)
	}
	if b.isolate {
		buf.WriteString(Preamble)
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref := id
		if b.reg != nil {
			m, err := b.reg.Get(id)
			if err != nil {
				return nil, err
			}
			ref = m.Payload
		}

		data, err := payloads.Payload(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", id, err)
		}

		fmt.Fprintf(&buf, "/* %s */\n", id)
		start := buf.Len()
		buf.Write(data)
		end := buf.Len()
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
		art.Sections = append(art.Sections, Section{ID: id, Ref: ref, Start: start, End: end})

		if b.logger != nil {
			b.logger.LogAttrs(ctx, slog.LevelDebug, "bundled module",
				slog.String("module", id),
				slog.String("payload", ref),
				slog.Int("bytes", len(data)))
		}
	}

	if b.isolate {
		buf.WriteString(Postamble)
	}
	art.Source = buf.Bytes()
	return art, nil
}

// FormatBanner returns text as a comment block ending in a newline. Text
// that already starts with "/*" or "//" is kept as is.
func FormatBanner(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	trimmed := strings.TrimLeft(text, " \t")
	if strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "//") {
		return text + "\n"
	}
	var sb strings.Builder
	sb.WriteString("/**\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(line, "*/", "* /")
		if line == "" {
			sb.WriteString(" *\n")
			continue
		}
		sb.WriteString(" * ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(" */\n")
	return sb.String()
}

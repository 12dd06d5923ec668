package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// ErrPayloadNotFound is returned when no source has the payload.
var ErrPayloadNotFound = errors.New("payload not found")

// PayloadResolver fetches module payloads by reference.
// Implementations must be safe for concurrent use.
type PayloadResolver interface {
	Payload(ctx context.Context, ref string) ([]byte, error)
}

// Compile-time interface compliance checks
var (
	_ PayloadResolver = (*DirResolver)(nil)
	_ PayloadResolver = MapResolver(nil)
	_ PayloadResolver = ResolverFunc(nil)
	_ PayloadResolver = (*ChainResolver)(nil)
	_ PayloadResolver = (*CachingResolver)(nil)
)

// ResolverFunc adapts a function to PayloadResolver.
type ResolverFunc func(ctx context.Context, ref string) ([]byte, error)

// Payload calls f.
func (f ResolverFunc) Payload(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// MapResolver serves payloads from memory.
type MapResolver map[string]string

// Payload returns a copy of the stored payload.
func (m MapResolver) Payload(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := m[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPayloadNotFound, ref)
	}
	return []byte(s), nil
}

// DirResolver reads payloads from a file tree. A reference is a
// slash-separated path; Ext is appended unless the reference already ends
// with it, so dotted identifiers such as "es.map.constructor" still get it.
type DirResolver struct {
	FS  fs.FS
	Ext string
}

// NewDirResolver serves payloads from dir with Ext ".js".
func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{FS: os.DirFS(dir), Ext: ".js"}
}

// Payload reads the file named by ref.
func (d *DirResolver) Payload(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path.Clean("/"+ref), "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("invalid payload reference %q", ref)
	}
	if d.Ext != "" && !strings.HasSuffix(name, d.Ext) {
		name += d.Ext
	}
	data, err := fs.ReadFile(d.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPayloadNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", ref, err)
	}
	return data, nil
}

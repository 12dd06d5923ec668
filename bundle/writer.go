package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const artifactPermissions = 0o644

// File describes one written file.
type File struct {
	Path string
	Size int
}

// Files lists what Writer.Write produced. Minified and SourceMap are zero
// when no minified output was requested.
type Files struct {
	Bundle    File
	Minified  File
	SourceMap File
}

// Writer stores artifacts under Dir.
type Writer struct {
	Dir string

	// Minifier produces the minified output. Required when a minified
	// name is given.
	Minifier Minifier

	// Banner is passed to the minifier as its preamble.
	Banner string
}

// Write stores art as <name>.js and, when minified is not empty, the
// minifier output as <minified>.js and <minified>.js.map.
func (w *Writer) Write(ctx context.Context, art *Artifact, name, minified string) (*Files, error) {
	if name == "" {
		return nil, fmt.Errorf("bundle name is empty")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	files := &Files{}
	var err error
	if files.Bundle, err = w.write(name+".js", art.Source); err != nil {
		return nil, err
	}
	if minified == "" {
		return files, nil
	}
	if w.Minifier == nil {
		return nil, fmt.Errorf("minified output %q requested without a minifier", minified)
	}

	mapName := minified + ".js.map"
	code, sourceMap, err := w.Minifier.Minify(ctx, art.Source, MinifyOptions{
		Preamble:     w.Banner,
		SourceMapURL: mapName,
	})
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", name, err)
	}
	if files.Minified, err = w.write(minified+".js", code); err != nil {
		return nil, err
	}
	if sourceMap != nil {
		if files.SourceMap, err = w.write(mapName, sourceMap); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (w *Writer) write(name string, data []byte) (File, error) {
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, data, artifactPermissions); err != nil {
		return File{}, fmt.Errorf("write %s: %w", path, err)
	}
	return File{Path: path, Size: len(data)}, nil
}

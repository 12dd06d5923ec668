package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
)

// MinifyOptions are passed to a Minifier with each source.
type MinifyOptions struct {
	// Preamble is written verbatim ahead of the minified code, usually
	// the banner.
	Preamble string

	// SourceMapURL is the URL the code should reference its map by,
	// typically "<name>.js.map".
	SourceMapURL string
}

// Minifier transforms a rendered bundle. The Bundler never inspects the
// result.
type Minifier interface {
	Minify(ctx context.Context, source []byte, opts MinifyOptions) (code, sourceMap []byte, err error)
}

// MinifierFunc adapts a function to Minifier.
type MinifierFunc func(ctx context.Context, source []byte, opts MinifyOptions) ([]byte, []byte, error)

// Minify calls f.
func (f MinifierFunc) Minify(ctx context.Context, source []byte, opts MinifyOptions) ([]byte, []byte, error) {
	return f(ctx, source, opts)
}

// Placeholders substituted in ExecMinifier arguments.
const (
	MapPlaceholder = "{map}"
	URLPlaceholder = "{url}"
)

// ExecMinifier runs an external command. The source goes to stdin and the
// code is read from stdout. An argument containing {map} is replaced by a
// temporary path the command must write the source map to; {url} is
// replaced by MinifyOptions.SourceMapURL.
//
//	terser --compress --mangle --source-map "url='{url}',filename='{map}'"
type ExecMinifier struct {
	Args []string

	// Env is appended to the current environment.
	Env []string

	// Dir is the working directory; empty means the current one.
	Dir string
}

// NewExecMinifier splits a command line with shell quoting rules.
func NewExecMinifier(command string) (*ExecMinifier, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse minifier command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("minifier command must contain at least one argument")
	}
	return &ExecMinifier{Args: args}, nil
}

// Minify runs the command once.
func (m *ExecMinifier) Minify(ctx context.Context, source []byte, opts MinifyOptions) ([]byte, []byte, error) {
	if len(m.Args) == 0 {
		return nil, nil, errors.New("minifier command is empty")
	}

	tmp, err := os.MkdirTemp("", "shimbuild-minify-")
	if err != nil {
		return nil, nil, err
	}
	defer os.RemoveAll(tmp)
	mapPath := filepath.Join(tmp, "bundle.js.map")

	wantsMap := false
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		if strings.Contains(a, MapPlaceholder) {
			wantsMap = true
			a = strings.ReplaceAll(a, MapPlaceholder, mapPath)
		}
		args[i] = strings.ReplaceAll(a, URLPlaceholder, opts.SourceMapURL)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = m.Dir
	if len(m.Env) > 0 {
		cmd.Env = append(os.Environ(), m.Env...)
	}
	cmd.Stdin = bytes.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, nil, fmt.Errorf("minifier %s: %w: %s", args[0], err, msg)
		}
		return nil, nil, fmt.Errorf("minifier %s: %w", args[0], err)
	}

	code := stdout.Bytes()
	if opts.Preamble != "" {
		code = append([]byte(FormatBanner(opts.Preamble)), code...)
	}

	var sourceMap []byte
	if wantsMap {
		if sourceMap, err = os.ReadFile(mapPath); err != nil {
			return nil, nil, fmt.Errorf("minifier %s wrote no source map: %w", args[0], err)
		}
	}
	return code, sourceMap, nil
}

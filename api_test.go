package shimbuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	compatPath := writeFile(t, dir, "compat.yaml", "es.map:\n  chrome: \"51\"\nes.map.of: {}\n")
	base := writeFile(t, dir, "base.star", `feature_module(name = "es.map")`+"\n")
	extra := writeFile(t, dir, "extra.json", `[{"id": "es.map.of", "dependencies": ["es.map"]}]`)

	r, err := Load(compatPath, []string{base, extra})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	res, err := r.Resolve(context.Background(), Request{Targets: map[string]string{"chrome": "60"}})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"es.map", "es.map.of"}; !slices.Equal(res.Modules, want) {
		t.Errorf("Modules = %v, want %v", res.Modules, want)
	}
	if res.Reasons["es.map"] != ReasonDependency {
		t.Errorf("es.map reason = %v, want dependency", res.Reasons["es.map"])
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	compatPath := writeFile(t, dir, "compat.json", `{"a": {"chrome": "1"}}`)
	dangling := writeFile(t, dir, "dangling.json", `[{"id": "b", "dependencies": ["a"]}]`)

	if _, err := Load(compatPath, nil); err == nil {
		t.Error("no registration files: expected error")
	}
	if _, err := Load(filepath.Join(dir, "missing.json"), []string{dangling}); err == nil {
		t.Error("missing compat file: expected error")
	}
	if _, err := Load(compatPath, []string{dangling}); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("dangling dependency: error = %v, want ErrUnknownModule", err)
	}
	if _, err := Load(compatPath, []string{dangling}, WithMetrics(nil)); err == nil {
		t.Error("invalid option: expected error")
	}
}

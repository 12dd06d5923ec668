package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	shimbuild "github.com/albertocavalcante/go-shimbuild"
)

const testConfig = `
compat: data/compat.json
modules:
  - data/modules.star
payloads:
  - payloads
out: build
log-level: warn
bundles:
  - name: index
  - name: index
    out: build/deno
    targets:
      deno: "1.0"
    exclude:
      - esnext.map.upsert
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shimbuild.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("compat", "", "")
	fs.StringSlice("modules", nil, "")
	fs.String("out", "dist", "")
	fs.String("log-level", "info", "")
	fs.String("conflict-policy", "forced-wins", "")
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, testConfig)
	dir := filepath.Dir(path)

	cfg, err := loadConfig(viper.New(), testFlags(t), path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if want := filepath.Join(dir, "data", "compat.json"); cfg.Compat != want {
		t.Errorf("Compat = %q, want %q", cfg.Compat, want)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != filepath.Join(dir, "data", "modules.star") {
		t.Errorf("Modules = %v", cfg.Modules)
	}
	if len(cfg.Payloads) != 1 || cfg.Payloads[0] != filepath.Join(dir, "payloads") {
		t.Errorf("Payloads = %v", cfg.Payloads)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.ConflictPolicy != "forced-wins" {
		t.Errorf("ConflictPolicy = %q, want the flag default", cfg.ConflictPolicy)
	}

	if len(cfg.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(cfg.Jobs))
	}
	if want := filepath.Join(dir, "build"); cfg.Jobs[0].Out != want {
		t.Errorf("Jobs[0].Out = %q, want %q", cfg.Jobs[0].Out, want)
	}
	deno := cfg.Jobs[1]
	if want := filepath.Join(dir, "build", "deno"); deno.Out != want {
		t.Errorf("Jobs[1].Out = %q, want %q", deno.Out, want)
	}
	if deno.Targets["deno"] != "1.0" {
		t.Errorf("Jobs[1].Targets = %v", deno.Targets)
	}
	req, err := deno.request()
	if err != nil {
		t.Fatal(err)
	}
	if req.Preset != shimbuild.PresetRequireAll || len(req.Exclude) != 1 {
		t.Errorf("request() = %+v", req)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, testConfig)
	t.Setenv("SHIMBUILD_LOG_LEVEL", "error")

	cfg, err := loadConfig(viper.New(), testFlags(t, "--out", "elsewhere"), path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want the environment value", cfg.LogLevel)
	}
	if cfg.Out != "elsewhere" {
		t.Errorf("Out = %q, want the flag value unchanged", cfg.Out)
	}
	if cfg.Jobs[0].Out != "elsewhere" {
		t.Errorf("Jobs[0].Out = %q, want the default output directory", cfg.Jobs[0].Out)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := loadConfig(viper.New(), testFlags(t, "--compat", "c.json"), "")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Compat != "c.json" || cfg.Out != "dist" {
		t.Errorf("cfg = %+v", cfg)
	}

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadConfig(viper.New(), testFlags(t), missing); err == nil {
		t.Error("explicit missing config: expected error")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "duplicate bundle",
			body: "bundles:\n  - name: index\n  - name: index\n",
			want: "built twice",
		},
		{
			name: "minified without minifier",
			body: "bundles:\n  - name: index\n    minified: minified\n",
			want: "needs a minifier command",
		},
		{
			name: "same minified name",
			body: "minifier: cat\nbundles:\n  - name: index\n    minified: index\n",
			want: "must differ",
		},
		{
			name: "unknown preset",
			body: "bundles:\n  - name: index\n    preset: latest\n",
			want: "unknown preset",
		},
		{
			name: "unknown policy",
			body: "conflict-policy: coin-flip\n",
			want: "unknown conflict policy",
		},
		{
			name: "name with separator",
			body: "bundles:\n  - name: deno/index\n",
			want: "path separator",
		},
		{
			name: "missing name",
			body: "bundles:\n  - out: x\n",
			want: "name is required",
		},
		{
			name: "negative parallel",
			body: "parallel: -1\n",
			want: "must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testFlags(t)
			fs.Int("parallel", 0, "")
			_, err := loadConfig(viper.New(), fs, writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestSelectJobs(t *testing.T) {
	cfg := &Config{Jobs: []Job{
		{Name: "index", Out: "dist"},
		{Name: "index", Out: "dist/deno"},
		{Name: "core", Out: "dist"},
	}}

	all, err := cfg.selectJobs(nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("selectJobs(nil) = %v, %v", all, err)
	}

	byName, err := cfg.selectJobs([]string{"index"})
	if err != nil || len(byName) != 2 {
		t.Errorf("selectJobs(index) = %v, %v", byName, err)
	}

	byPath, err := cfg.selectJobs([]string{"dist/deno/index.js"})
	if err != nil || len(byPath) != 1 || byPath[0].Out != "dist/deno" {
		t.Errorf("selectJobs(dist/deno/index.js) = %v, %v", byPath, err)
	}

	if _, err := cfg.selectJobs([]string{"missing"}); err == nil {
		t.Error("unknown bundle: expected error")
	}
	if _, err := (&Config{}).selectJobs(nil); err == nil {
		t.Error("no bundles: expected error")
	}
}

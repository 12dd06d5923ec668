package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	shimbuild "github.com/albertocavalcante/go-shimbuild"
)

// envPrefix prefixes environment overrides, e.g. SHIMBUILD_LOG_LEVEL.
const envPrefix = "SHIMBUILD"

// Config is the shimbuild configuration file, merged with flags and
// environment variables.
type Config struct {
	// Compat is the compat data file.
	Compat string `mapstructure:"compat"`

	// Modules lists registration files in registration order.
	Modules []string `mapstructure:"modules"`

	// Payloads lists directories searched for module payloads, first
	// match wins.
	Payloads []string `mapstructure:"payloads"`

	// PayloadExt is appended to payload references without an extension.
	PayloadExt string `mapstructure:"payload-ext"`

	// Out is the default output directory of bundle jobs.
	Out string `mapstructure:"out"`

	Banner   string `mapstructure:"banner"`
	Minifier string `mapstructure:"minifier"`

	ConflictPolicy        string `mapstructure:"conflict-policy"`
	BrokenExclusionPolicy string `mapstructure:"broken-exclusion-policy"`

	LogLevel    string `mapstructure:"log-level"`
	MetricsFile string `mapstructure:"metrics-file"`

	// Parallel bounds concurrent bundle jobs. Zero means one per CPU.
	Parallel int `mapstructure:"parallel"`

	Jobs []Job `mapstructure:"bundles"`
}

// Job is one bundle to build.
type Job struct {
	Name     string            `mapstructure:"name"`
	Minified string            `mapstructure:"minified"`
	Out      string            `mapstructure:"out"`
	Targets  map[string]string `mapstructure:"targets"`
	Preset   string            `mapstructure:"preset"`
	Exclude  []string          `mapstructure:"exclude"`
	Include  []string          `mapstructure:"include"`
	Modules  []string          `mapstructure:"modules"`
}

// request converts the job to a resolution request.
func (j Job) request() (shimbuild.Request, error) {
	preset, err := shimbuild.ParsePreset(j.Preset)
	if err != nil {
		return shimbuild.Request{}, err
	}
	return shimbuild.Request{
		Targets: j.Targets,
		Preset:  preset,
		Exclude: j.Exclude,
		Include: j.Include,
		Modules: j.Modules,
	}, nil
}

// label names the job in messages.
func (j Job) label() string {
	return filepath.ToSlash(filepath.Join(j.Out, j.Name+".js"))
}

// loadConfig reads the configuration file at path, or shimbuild.yaml in
// the working directory when path is empty, and overlays environment
// variables and the flags in fs. Relative paths read from the file are
// taken relative to the file.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet, path string) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	configureConfigFile(v, path)

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if err := readConfigFile(v, path != ""); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		base := filepath.Dir(used)
		fromFile := func(key string) bool {
			f := fs.Lookup(key)
			return v.InConfig(key) && (f == nil || !f.Changed)
		}
		if fromFile("compat") {
			cfg.Compat = resolvePath(base, cfg.Compat)
		}
		if fromFile("modules") {
			cfg.Modules = resolvePaths(base, cfg.Modules)
		}
		if fromFile("payloads") {
			cfg.Payloads = resolvePaths(base, cfg.Payloads)
		}
		if fromFile("out") {
			cfg.Out = resolvePath(base, cfg.Out)
		}
		if fromFile("metrics-file") {
			cfg.MetricsFile = resolvePath(base, cfg.MetricsFile)
		}
		for i := range cfg.Jobs {
			cfg.Jobs[i].Out = resolvePath(base, cfg.Jobs[i].Out)
		}
	}
	for i := range cfg.Jobs {
		if cfg.Jobs[i].Out == "" {
			cfg.Jobs[i].Out = cfg.Out
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if _, err := shimbuild.ParseConflictPolicy(c.ConflictPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := shimbuild.ParseBrokenExclusionPolicy(c.BrokenExclusionPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Parallel < 0 {
		errs = append(errs, fmt.Errorf("parallel must not be negative, got %d", c.Parallel))
	}

	seen := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		if strings.TrimSpace(j.Name) == "" {
			errs = append(errs, fmt.Errorf("bundles[%d]: name is required", i))
			continue
		}
		if strings.ContainsAny(j.Name, `/\`) {
			errs = append(errs, fmt.Errorf("bundles[%d]: name %q must not contain a path separator; use out", i, j.Name))
		}
		if seen[j.label()] {
			errs = append(errs, fmt.Errorf("bundles[%d]: %s is built twice", i, j.label()))
		}
		seen[j.label()] = true
		if j.Minified != "" && j.Minified == j.Name {
			errs = append(errs, fmt.Errorf("bundles[%d]: minified name must differ from %q", i, j.Name))
		}
		if j.Minified != "" && c.Minifier == "" {
			errs = append(errs, fmt.Errorf("bundles[%d]: minified output %q needs a minifier command", i, j.Minified))
		}
		if _, err := shimbuild.ParsePreset(j.Preset); err != nil {
			errs = append(errs, fmt.Errorf("bundles[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// resolverOptions turns the policy settings into resolver options.
func (c *Config) resolverOptions() ([]shimbuild.Option, error) {
	conflict, err := shimbuild.ParseConflictPolicy(c.ConflictPolicy)
	if err != nil {
		return nil, err
	}
	broken, err := shimbuild.ParseBrokenExclusionPolicy(c.BrokenExclusionPolicy)
	if err != nil {
		return nil, err
	}
	return []shimbuild.Option{
		shimbuild.WithConflictPolicy(conflict),
		shimbuild.WithBrokenExclusionPolicy(broken),
	}, nil
}

// selectJobs returns the jobs named in names, in config order. An empty
// names selects every job.
func (c *Config) selectJobs(names []string) ([]Job, error) {
	if len(c.Jobs) == 0 {
		return nil, fmt.Errorf("no bundles configured")
	}
	if len(names) == 0 {
		return c.Jobs, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var jobs []Job
	for _, j := range c.Jobs {
		if want[j.Name] || want[j.label()] {
			jobs = append(jobs, j)
			delete(want, j.Name)
			delete(want, j.label())
		}
	}
	for _, n := range names {
		if want[n] {
			return nil, fmt.Errorf("no bundle named %q", n)
		}
	}
	return jobs, nil
}

func (c *Config) requireSources(needCompat bool) error {
	if needCompat && c.Compat == "" {
		return fmt.Errorf("no compat data file configured (set compat or --compat)")
	}
	if len(c.Modules) == 0 {
		return fmt.Errorf("no registration files configured (set modules or --modules)")
	}
	return nil
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("shimbuild")
	v.AddConfigPath(".")
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func resolvePaths(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolvePath(base, p)
	}
	return out
}

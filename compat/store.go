package compat

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-shimbuild/version"
)

// Malformed records a table entry whose version token could not be parsed.
type Malformed struct {
	Feature     string
	Environment string
	Token       string
	Err         error
}

// Collision records two spellings of one environment in a single row. The
// stricter minimum is kept.
type Collision struct {
	Feature     string
	Environment string
	Kept        version.Version
	Dropped     version.Version
}

// Store is an immutable compatibility table.
type Store struct {
	entries   map[string]map[string]version.Version
	features  []string
	envs      []string
	oldest    map[string]version.Version
	newest    map[string]version.Version
	aliases   map[string]string
	malformed []Malformed
	collided  []Collision
}

type storeConfig struct {
	aliases map[string]string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*storeConfig)

// WithAliases maps alternate environment names onto canonical ones, for
// example "ios_saf" to "ios". Keys and values are case-insensitive.
func WithAliases(aliases map[string]string) Option {
	return func(c *storeConfig) {
		for k, v := range aliases {
			c.aliases[canonical(k)] = canonical(v)
		}
	}
}

// WithLogger sets the logger used to report malformed and colliding entries.
func WithLogger(l *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = l
	}
}

// New builds a Store from feature -> environment -> version token data.
// The input is copied; later changes to data do not affect the Store.
func New(data map[string]map[string]string, opts ...Option) *Store {
	cfg := &storeConfig{aliases: make(map[string]string)}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Store{
		entries: make(map[string]map[string]version.Version, len(data)),
		oldest:  make(map[string]version.Version),
		newest:  make(map[string]version.Version),
		aliases: cfg.aliases,
	}

	// Iterate in sorted order so Malformed() is stable across runs.
	for _, feature := range slices.Sorted(maps.Keys(data)) {
		envs := data[feature]
		row := make(map[string]version.Version, len(envs))
		for _, rawEnv := range slices.Sorted(maps.Keys(envs)) {
			token := envs[rawEnv]
			env := s.CanonicalEnvironment(rawEnv)
			v, err := version.Parse(token)
			if err != nil {
				s.malformed = append(s.malformed, Malformed{
					Feature:     feature,
					Environment: env,
					Token:       token,
					Err:         err,
				})
				if cfg.logger != nil {
					cfg.logger.LogAttrs(context.Background(), slog.LevelWarn, "malformed compat version",
						slog.String("feature", feature),
						slog.String("environment", env),
						slog.String("token", token))
				}
				continue
			}
			if prev, dup := row[env]; dup {
				kept := stricter(prev, v)
				dropped := v
				if kept == v {
					dropped = prev
				}
				s.collided = append(s.collided, Collision{
					Feature:     feature,
					Environment: env,
					Kept:        kept,
					Dropped:     dropped,
				})
				if cfg.logger != nil {
					cfg.logger.LogAttrs(context.Background(), slog.LevelWarn, "duplicate compat environment",
						slog.String("feature", feature),
						slog.String("environment", env),
						slog.String("kept", kept.String()),
						slog.String("dropped", dropped.String()))
				}
				v = kept
			}
			row[env] = v
			if old, ok := s.oldest[env]; !ok || version.Less(v, old) {
				s.oldest[env] = v
			}
			if nv, ok := s.newest[env]; !ok || version.Less(nv, v) {
				s.newest[env] = v
			}
		}
		s.entries[feature] = row
	}

	s.features = slices.Sorted(maps.Keys(s.entries))
	s.envs = slices.Sorted(maps.Keys(s.newest))
	return s
}

// CanonicalEnvironment lower-cases name and resolves aliases.
func (s *Store) CanonicalEnvironment(name string) string {
	env := canonical(name)
	if target, ok := s.aliases[env]; ok {
		return target
	}
	return env
}

// IsSupported reports whether feature is native in env at requested.
// Missing features and missing environments both report false, and so does
// an always-required token on either side: a requested "false" demands
// every shim, and a stored "false" means the feature never ships natively.
func (s *Store) IsSupported(feature, env string, requested version.Version) bool {
	row, ok := s.entries[feature]
	if !ok {
		return false
	}
	minimum, ok := row[s.CanonicalEnvironment(env)]
	if !ok {
		return false
	}
	if requested.Kind() == version.AlwaysRequired || minimum.Kind() == version.AlwaysRequired {
		return false
	}
	return version.AtLeast(requested, minimum)
}

// Has reports whether the table has a row for feature.
func (s *Store) Has(feature string) bool {
	_, ok := s.entries[feature]
	return ok
}

// Entry returns a copy of the row for feature.
func (s *Store) Entry(feature string) (map[string]version.Version, bool) {
	row, ok := s.entries[feature]
	if !ok {
		return nil, false
	}
	return maps.Clone(row), true
}

// Features returns all feature identifiers, sorted.
func (s *Store) Features() []string {
	return slices.Clone(s.features)
}

// Environments returns every environment with at least one valid entry, sorted.
func (s *Store) Environments() []string {
	return slices.Clone(s.envs)
}

// HasEnvironment reports whether any row mentions env.
func (s *Store) HasEnvironment(env string) bool {
	_, ok := s.newest[s.CanonicalEnvironment(env)]
	return ok
}

// OldestVersion returns the lowest minimum recorded for env.
func (s *Store) OldestVersion(env string) (version.Version, bool) {
	v, ok := s.oldest[s.CanonicalEnvironment(env)]
	return v, ok
}

// NewestVersion returns the highest minimum recorded for env.
func (s *Store) NewestVersion(env string) (version.Version, bool) {
	v, ok := s.newest[s.CanonicalEnvironment(env)]
	return v, ok
}

// Malformed returns the entries dropped at load time.
func (s *Store) Malformed() []Malformed {
	return slices.Clone(s.malformed)
}

// Collisions returns the rows where an alias and its canonical name both
// carried a minimum.
func (s *Store) Collisions() []Collision {
	return slices.Clone(s.collided)
}

// stricter returns the minimum that reports support less often. A stored
// always-required token never reports support, so it beats any release.
func stricter(a, b version.Version) version.Version {
	if a.Kind() == version.AlwaysRequired {
		return a
	}
	if b.Kind() == version.AlwaysRequired {
		return b
	}
	return version.Max(a, b)
}

func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

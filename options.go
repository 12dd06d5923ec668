package shimbuild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Resolver.
type Option func(*resolverConfig) error

type resolverConfig struct {
	conflict ConflictPolicy
	broken   BrokenExclusionPolicy

	// registerer receives the resolver metrics. Nil disables metrics.
	registerer prometheus.Registerer

	// logger is the structured logger for debug output. Nil is silent.
	logger *slog.Logger
}

// WithConflictPolicy sets how a module named by both Exclude and Include
// is decided. The default is ForcedWins.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(c *resolverConfig) error {
		c.conflict = p
		return nil
	}
}

// WithBrokenExclusionPolicy sets what happens when a kept module depends on
// an excluded one. The default is DropDependents.
func WithBrokenExclusionPolicy(p BrokenExclusionPolicy) Option {
	return func(c *resolverConfig) error {
		c.broken = p
		return nil
	}
}

// WithMetrics registers resolver metrics with reg. Registering twice with
// the same registerer reuses the collectors already there.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *resolverConfig) error {
		if reg == nil {
			return fmt.Errorf("metrics registerer is nil")
		}
		c.registerer = reg
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Any slog backend works. zap users can bridge with
// slog.New(zapslog.NewHandler(core)).
func WithLogger(l *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = l
		return nil
	}
}

func (c *resolverConfig) validate() error {
	switch c.conflict {
	case ForcedWins, ExclusionWins:
	default:
		return fmt.Errorf("unknown conflict policy %d", int(c.conflict))
	}
	switch c.broken {
	case DropDependents, RestoreExcluded, FailOnBroken:
	default:
		return fmt.Errorf("unknown broken exclusion policy %d", int(c.broken))
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

package shimbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/albertocavalcante/go-shimbuild/compat"
	"github.com/albertocavalcante/go-shimbuild/registry"
	"github.com/albertocavalcante/go-shimbuild/version"
)

// Resolver computes module sets against a fixed compat table and registry.
// A Resolver holds no per-request state and is safe for concurrent use.
type Resolver struct {
	store   *compat.Store
	reg     *registry.Registry
	cfg     *resolverConfig
	metrics *metrics
}

// NewResolver returns a Resolver over store and reg.
func NewResolver(store *compat.Store, reg *registry.Registry, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("compat store is nil")
	}
	if reg == nil {
		return nil, errors.New("registry is nil")
	}
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, err
	}
	r := &Resolver{store: store, reg: reg, cfg: cfg}
	if cfg.registerer != nil {
		if r.metrics, err = newMetrics(cfg.registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return r, nil
}

// Registry returns the registry the resolver reads.
func (r *Resolver) Registry() *registry.Registry {
	return r.reg
}

// Store returns the compat table the resolver reads.
func (r *Resolver) Store() *compat.Store {
	return r.store
}

// Resolve computes the ordered module set for req.
//
// Resolution is synchronous and does no I/O; ctx is only checked before
// work starts. Request errors (unknown selectors, FailOnBroken) are
// returned as typed errors and leave the resolver untouched.
func (r *Resolver) Resolve(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() {
		r.metrics.observe(res, err, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &resolution{
		Resolver: r,
		reasons:  make(map[string]Reason),
	}
	res, err = run.resolve(req)
	if err != nil {
		return nil, err
	}

	log := r.cfg.log()
	log.LogAttrs(ctx, slog.LevelDebug, "resolved modules",
		slog.Int("targets", len(res.Targets)),
		slog.Int("seeded", res.Summary.Seeded),
		slog.Int("closure", res.Summary.Closure),
		slog.Int("modules", res.Summary.Total),
		slog.Int("diagnostics", len(res.Diagnostics)))
	for _, d := range res.Diagnostics {
		level := slog.LevelDebug
		if d.Severity == SeverityWarning {
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, d.Message,
			slog.String("kind", d.Kind.String()),
			slog.String("module", d.Module),
			slog.String("related", d.Related))
	}
	return res, nil
}

type target struct {
	env string
	v   version.Version
}

// resolution holds the state of one Resolve call.
type resolution struct {
	*Resolver
	reasons map[string]Reason
	diags   []Diagnostic
}

func (run *resolution) resolve(req Request) (*Result, error) {
	ids := run.reg.IDs()

	candidates := ids
	if len(req.Modules) > 0 {
		var err error
		if candidates, err = run.reg.MatchAll(req.Modules); err != nil {
			return nil, fmt.Errorf("module filter: %w", err)
		}
	}
	excluded, err := run.matchSet(req.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}
	forced, err := run.matchSet(req.Include)
	if err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	run.settleConflicts(excluded, forced)

	targets := run.effectiveTargets(req)

	// Seed.
	var seed []string
	seeded := 0
	for _, id := range candidates {
		if run.unsupported(id, targets) {
			seed = append(seed, id)
			run.reasons[id] = ReasonUnsupported
			seeded++
		}
	}
	for _, id := range ids {
		if forced[id] {
			if _, ok := run.reasons[id]; !ok {
				seed = append(seed, id)
			}
			run.reasons[id] = ReasonForced
		}
	}

	// Expand.
	closed, err := run.reg.Graph().CloseUnder(seed)
	if err != nil {
		return nil, err
	}
	for _, id := range closed {
		if _, ok := run.reasons[id]; !ok {
			run.reasons[id] = ReasonDependency
		}
	}

	// Prune.
	keep, sum, err := run.prune(closed, excluded, forced)
	if err != nil {
		return nil, err
	}

	// Order.
	order, err := run.reg.Graph().Order(keep)
	if err != nil {
		return nil, err
	}
	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	maps.DeleteFunc(run.reasons, func(id string, _ Reason) bool { return !kept[id] })

	sum.Candidates = len(candidates)
	sum.Seeded = seeded
	sum.Forced = len(forced)
	sum.Closure = len(closed)
	sum.Total = len(order)

	res := &Result{
		Modules:     order,
		Targets:     make(map[string]string, len(targets)),
		Reasons:     run.reasons,
		Diagnostics: run.diags,
		Summary:     sum,
	}
	for _, t := range targets {
		res.Targets[t.env] = t.v.String()
	}
	return res, nil
}

func (run *resolution) matchSet(patterns []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if len(patterns) == 0 {
		return set, nil
	}
	ids, err := run.reg.MatchAll(patterns)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// settleConflicts applies the conflict policy to modules both excluded
// and forced.
func (run *resolution) settleConflicts(excluded, forced map[string]bool) {
	for _, id := range run.reg.IDs() {
		if !excluded[id] || !forced[id] {
			continue
		}
		d := Diagnostic{
			Kind:     ExclusionConflict,
			Severity: SeverityWarning,
			Module:   id,
		}
		if run.cfg.conflict == ExclusionWins {
			delete(forced, id)
			d.Message = "module is both excluded and included; exclusion wins"
		} else {
			delete(excluded, id)
			d.Message = "module is both excluded and included; inclusion wins"
		}
		run.diags = append(run.diags, d)
	}
}

// effectiveTargets turns the request into canonical (environment, version)
// pairs sorted by environment.
func (run *resolution) effectiveTargets(req Request) []target {
	var targets []target
	switch {
	case len(req.Targets) > 0:
		byEnv := make(map[string]version.Version, len(req.Targets))
		for _, raw := range slices.Sorted(maps.Keys(req.Targets)) {
			token := req.Targets[raw]
			env := run.store.CanonicalEnvironment(raw)
			v, err := version.Parse(token)
			if err != nil {
				run.diags = append(run.diags, Diagnostic{
					Kind:        MalformedVersion,
					Severity:    SeverityWarning,
					Environment: env,
					Message:     fmt.Sprintf("target version %q is malformed; every module is required", token),
				})
			}
			if !run.store.HasEnvironment(env) {
				run.diags = append(run.diags, Diagnostic{
					Kind:        UnknownEnvironment,
					Severity:    SeverityNote,
					Environment: env,
					Message:     "no compat data for environment; every module is required",
				})
			}
			// Two spellings of one environment keep the lower version.
			if prev, ok := byEnv[env]; ok {
				v = version.Min(prev, v)
			}
			byEnv[env] = v
		}
		for _, env := range slices.Sorted(maps.Keys(byEnv)) {
			targets = append(targets, target{env: env, v: byEnv[env]})
		}
	case req.Preset == PresetOldest:
		for _, env := range run.store.Environments() {
			v, _ := run.store.OldestVersion(env)
			targets = append(targets, target{env: env, v: v})
		}
	case req.Preset == PresetNewest:
		for _, env := range run.store.Environments() {
			v, _ := run.store.NewestVersion(env)
			targets = append(targets, target{env: env, v: v})
		}
	}
	return targets
}

// unsupported reports whether some target lacks id natively.
func (run *resolution) unsupported(id string, targets []target) bool {
	if len(targets) == 0 {
		return true
	}
	for _, t := range targets {
		if !run.store.IsSupported(id, t.env, t.v) {
			return true
		}
	}
	return false
}

// prune removes excluded modules from closed and applies the broken
// exclusion policy. The result keeps registration order.
func (run *resolution) prune(closed []string, excluded, forced map[string]bool) ([]string, Summary, error) {
	var sum Summary
	out := make(map[string]bool, len(closed))
	for _, id := range closed {
		if excluded[id] {
			out[id] = true
		}
	}
	if len(out) == 0 {
		return closed, sum, nil
	}

	g := run.reg.Graph()
	// blockers returns the excluded modules id needs, in registration order.
	blockers := func(id string) []string {
		var b []string
		for _, dep := range g.TransitiveDeps(id) {
			if out[dep] {
				b = append(b, dep)
			}
		}
		slices.SortFunc(b, run.bySeq)
		return b
	}
	restore := func(id, by, message string) {
		if !out[id] {
			return
		}
		delete(out, id)
		sum.Restored++
		run.diags = append(run.diags, Diagnostic{
			Kind:     BrokenExclusion,
			Severity: SeverityWarning,
			Module:   id,
			Related:  by,
			Message:  message,
		})
	}

	dropped := make(map[string]bool)
	switch run.cfg.broken {
	case FailOnBroken:
		var broken []Diagnostic
		for _, id := range closed {
			if out[id] {
				continue
			}
			if b := blockers(id); len(b) > 0 {
				broken = append(broken, brokenDiagnostic(id, b, "requires"))
			}
		}
		if len(broken) > 0 {
			return nil, sum, &BrokenExclusionError{Broken: broken}
		}

	case RestoreExcluded:
		kept := slices.DeleteFunc(slices.Clone(closed), func(id string) bool { return out[id] })
		for _, id := range kept {
			for _, b := range blockers(id) {
				restore(b, id, fmt.Sprintf("excluded module restored: %s requires it", id))
			}
		}

	default:
		for _, id := range closed {
			if forced[id] {
				for _, b := range blockers(id) {
					restore(b, id, fmt.Sprintf("excluded module restored: forced module %s requires it", id))
				}
			}
		}
		for _, id := range closed {
			if out[id] || forced[id] {
				continue
			}
			if b := blockers(id); len(b) > 0 {
				dropped[id] = true
				run.diags = append(run.diags, brokenDiagnostic(id, b, "dropped: requires"))
			}
		}
	}

	keep := make([]string, 0, len(closed))
	for _, id := range closed {
		if !out[id] && !dropped[id] {
			keep = append(keep, id)
		}
	}
	sum.Excluded = len(out)
	sum.Dropped = len(dropped)
	return keep, sum, nil
}

func brokenDiagnostic(id string, blockers []string, verb string) Diagnostic {
	noun := "excluded module"
	if len(blockers) > 1 {
		noun = "excluded modules"
	}
	return Diagnostic{
		Kind:     BrokenExclusion,
		Severity: SeverityWarning,
		Module:   id,
		Related:  blockers[0],
		Message:  fmt.Sprintf("%s %s %s", verb, noun, strings.Join(blockers, ", ")),
	}
}

func (run *resolution) bySeq(a, b string) int {
	sa, _ := run.reg.Seq(a)
	sb, _ := run.reg.Seq(b)
	return sa - sb
}

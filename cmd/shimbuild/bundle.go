package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	shimbuild "github.com/albertocavalcante/go-shimbuild"
	"github.com/albertocavalcante/go-shimbuild/bundle"
	"github.com/albertocavalcante/go-shimbuild/manifest"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

func newBundleCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle [name...]",
		Short: "Build the bundles listed in the config",
		Long: `Build the bundles listed under "bundles:" in the config. Each bundle is
resolved, rendered and written as <name>.js, optionally minified to
<minified>.js with a source map, and recorded in <name>.manifest.json.

Positional arguments select bundles by name or by output path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBundles(cmd.Context(), args)
		},
	}
	f := cmd.Flags()
	f.String("banner", "", "Comment written at the top of every bundle")
	f.String("minifier", "", `Minifier command; source on stdin, code on stdout, "{map}" and "{url}" are replaced`)
	f.String("metrics-file", "", "Write resolver metrics in Prometheus text format to this file")
	f.Int("parallel", 0, "Bundles built at once (default one per CPU)")
	return cmd
}

// buildReport is what one bundle job wrote.
type buildReport struct {
	job      Job
	files    *bundle.Files
	manifest string
	result   *shimbuild.Result
}

// bundleEnv is shared by the jobs of one run.
type bundleEnv struct {
	resolver *shimbuild.Resolver
	bundler  *bundle.Bundler
	payloads bundle.PayloadResolver
	minifier bundle.Minifier
	banner   string
	log      *zap.Logger
}

func (a *app) runBundles(ctx context.Context, names []string) error {
	jobs, err := a.cfg.selectJobs(names)
	if err != nil {
		return err
	}

	metrics := prometheus.NewRegistry()
	resolver, err := a.newResolver(shimbuild.WithMetrics(metrics))
	if err != nil {
		return err
	}
	payloads, err := a.payloadResolver()
	if err != nil {
		return err
	}
	env := &bundleEnv{
		resolver: resolver,
		bundler: bundle.New(resolver.Registry(),
			bundle.WithBanner(a.cfg.Banner),
			bundle.WithLogger(slogger(a.log))),
		payloads: payloads,
		banner:   a.cfg.Banner,
		log:      a.log,
	}
	if a.cfg.Minifier != "" {
		if env.minifier, err = bundle.NewExecMinifier(a.cfg.Minifier); err != nil {
			return err
		}
	}

	limit := a.cfg.Parallel
	if limit == 0 {
		limit = runtime.NumCPU()
	}
	reports := make([]*buildReport, len(jobs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, job := range jobs {
		eg.Go(func() error {
			report, err := env.build(egCtx, job)
			if err != nil {
				return fmt.Errorf("bundle %s: %w", job.label(), err)
			}
			reports[i] = report
			return nil
		})
	}
	err = eg.Wait()

	if a.cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(a.cfg.MetricsFile, metrics); werr != nil {
			a.log.Warn("failed to write metrics", zap.String("path", a.cfg.MetricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	for _, r := range reports {
		r.print(a.out)
	}
	return nil
}

// payloadResolver searches the configured directories in order. Payloads
// are cached because jobs share most modules.
func (a *app) payloadResolver() (bundle.PayloadResolver, error) {
	if len(a.cfg.Payloads) == 0 {
		return nil, fmt.Errorf("no payload directories configured (set payloads or --payloads)")
	}
	dirs := make([]bundle.PayloadResolver, len(a.cfg.Payloads))
	for i, dir := range a.cfg.Payloads {
		d := bundle.NewDirResolver(dir)
		d.Ext = a.cfg.PayloadExt
		dirs[i] = d
	}
	chain, err := bundle.NewChainResolver(dirs...)
	if err != nil {
		return nil, err
	}
	return bundle.NewCachingResolver(chain), nil
}

func (e *bundleEnv) build(ctx context.Context, job Job) (*buildReport, error) {
	req, err := job.request()
	if err != nil {
		return nil, err
	}
	res, err := e.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	art, err := e.bundler.Render(ctx, res.Modules, e.payloads)
	if err != nil {
		return nil, err
	}

	w := &bundle.Writer{Dir: job.Out, Minifier: e.minifier, Banner: e.banner}
	files, err := w.Write(ctx, art, job.Name, job.Minified)
	if err != nil {
		return nil, err
	}

	m, err := manifest.FromResult(job.Name, res, art)
	if err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(job.Out, manifest.FileName(job.Name))
	if err := m.WriteFile(manifestPath); err != nil {
		return nil, err
	}

	e.log.Debug("bundle written",
		zap.String("bundle", job.label()),
		zap.Int("modules", len(res.Modules)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.String("digest", m.ArtifactDigest.String()))
	return &buildReport{job: job, files: files, manifest: manifestPath, result: res}, nil
}

func (r *buildReport) print(w io.Writer) {
	logFile(w, "bundling", r.files.Bundle)
	if r.files.Minified.Path != "" {
		logFile(w, "minification", r.files.Minified)
	}
}

func logFile(w io.Writer, kind string, f bundle.File) {
	size := fmt.Sprintf("%.2fKB", float64(f.Size)/1024)
	fmt.Fprintf(w, "%s %s%s %s\n", green(kind+":"), cyan(f.Path), green(", size:"), cyan(size))
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	shimbuild "github.com/albertocavalcante/go-shimbuild"
)

type resolveOptions struct {
	targets []string
	preset  string
	exclude []string
	include []string
	only    []string
	json    bool
}

func newResolveCommand(a *app) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the modules the given targets need, in load order",
		Example: `  shimbuild resolve --target chrome=80 --target safari=13.1
  shimbuild resolve --preset newest --exclude esnext.map.upsert --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			resolver, err := a.newResolver()
			if err != nil {
				return err
			}
			res, err := resolver.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(a.out, res)
			}
			printResult(a.out, res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&opts.targets, "target", "t", nil, "Target environment as env=version (repeatable)")
	f.StringVar(&opts.preset, "preset", "", "Targets used without --target: require-all, oldest or newest")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "Modules never emitted (id, namespace or /regexp/)")
	f.StringSliceVar(&opts.include, "include", nil, "Modules emitted regardless of compat data")
	f.StringSliceVar(&opts.only, "only", nil, "Restrict candidates to these modules")
	f.BoolVar(&opts.json, "json", false, "Print the full result as JSON")
	return cmd
}

func (o *resolveOptions) request() (shimbuild.Request, error) {
	targets, err := parseTargets(o.targets)
	if err != nil {
		return shimbuild.Request{}, err
	}
	preset, err := shimbuild.ParsePreset(o.preset)
	if err != nil {
		return shimbuild.Request{}, err
	}
	return shimbuild.Request{
		Targets: targets,
		Preset:  preset,
		Exclude: o.exclude,
		Include: o.include,
		Modules: o.only,
	}, nil
}

// parseTargets reads env=version pairs. A repeated environment keeps the
// last value.
func parseTargets(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	targets := make(map[string]string, len(pairs))
	for _, p := range pairs {
		env, ver, ok := strings.Cut(p, "=")
		env, ver = strings.TrimSpace(env), strings.TrimSpace(ver)
		if !ok || env == "" || ver == "" {
			return nil, fmt.Errorf("invalid target %q (want env=version)", p)
		}
		targets[env] = ver
	}
	return targets, nil
}

func printResult(w io.Writer, res *shimbuild.Result) {
	width := 0
	for _, id := range res.Modules {
		width = max(width, len(id))
	}
	for _, id := range res.Modules {
		fmt.Fprintf(w, "%-*s  %s\n", width, id, res.Reasons[id])
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "%s\n", d)
	}
	s := res.Summary
	fmt.Fprintf(w, "%d modules (%d candidates, %d unsupported, %d forced, %d excluded, %d dropped, %d restored)\n",
		s.Total, s.Candidates, s.Seeded, s.Forced, s.Excluded, s.Dropped, s.Restored)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Command shimbuild resolves the feature modules a set of target
// environments is missing and bundles them into JavaScript artifacts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	shimbuild "github.com/albertocavalcante/go-shimbuild"
	"github.com/albertocavalcante/go-shimbuild/registry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by subcommands once flags and config
// have been read.
type app struct {
	v   *viper.Viper
	cfg *Config
	log *zap.Logger
	out io.Writer
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}
	var configPath string

	cmd := &cobra.Command{
		Use:           "shimbuild",
		Short:         "Resolve and bundle feature modules for target environments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.v, cmd.Flags(), configPath)
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, logger
			if used := a.v.ConfigFileUsed(); used != "" {
				a.log.Debug("loaded config", zap.String("path", used))
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	cmd.SetOut(out)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", os.Getenv(envPrefix+"_CONFIG"), "Config file (default ./shimbuild.yaml)")
	pf.String("compat", "", "Compat data file (.json, .yaml)")
	pf.StringSlice("modules", nil, "Registration files (.json, .yaml, .star), in registration order")
	pf.StringSlice("payloads", nil, "Directories searched for module payloads")
	pf.String("payload-ext", ".js", "Extension appended to payload references without one")
	pf.String("out", "dist", "Default output directory")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("conflict-policy", shimbuild.ForcedWins.String(), "Module both excluded and included: forced-wins or exclusion-wins")
	pf.String("broken-exclusion-policy", shimbuild.DropDependents.String(), "Kept module needing an excluded one: drop-dependents, restore-excluded or fail")

	cmd.AddCommand(newBundleCommand(a), newResolveCommand(a), newGraphCommand(a))
	return cmd
}

// newResolver loads the configured compat data and registration files.
func (a *app) newResolver(extra ...shimbuild.Option) (*shimbuild.Resolver, error) {
	if err := a.cfg.requireSources(true); err != nil {
		return nil, err
	}
	opts, err := a.cfg.resolverOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, shimbuild.WithLogger(slogger(a.log)))
	opts = append(opts, extra...)
	return shimbuild.Load(a.cfg.Compat, a.cfg.Modules, opts...)
}

// loadRegistry loads only the registration files.
func (a *app) loadRegistry() (*registry.Registry, error) {
	if err := a.cfg.requireSources(false); err != nil {
		return nil, err
	}
	return registry.LoadFiles(a.cfg.Modules...)
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	switch {
	case errors.Is(err, shimbuild.ErrBrokenExclusion):
		message = fmt.Sprintf("%s\nHint: drop the exclusion or set --broken-exclusion-policy=drop-dependents.", err)
	case errors.Is(err, shimbuild.ErrUnknownModule):
		message = fmt.Sprintf("%s\nHint: run 'shimbuild graph' to list the registered modules.", err)
	case errors.Is(err, context.Canceled):
		message = "interrupted"
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

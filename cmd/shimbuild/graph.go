package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newGraphCommand(a *app) *cobra.Command {
	var format string
	var focus []string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the module dependency graph",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			g := reg.Graph()
			switch format {
			case "text":
				_, err = io.WriteString(a.out, g.ToText())
			case "dot":
				ids, merr := reg.MatchAll(focus)
				if merr != nil {
					return merr
				}
				_, err = io.WriteString(a.out, g.ToDOT(ids...))
			case "json":
				var data []byte
				if data, err = g.ToJSON(); err == nil {
					_, err = fmt.Fprintf(a.out, "%s\n", data)
				}
			default:
				return fmt.Errorf("unknown format %q (want text, dot or json)", format)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, dot or json")
	cmd.Flags().StringSliceVar(&focus, "focus", nil, "With --format=dot, draw only these modules")
	return cmd
}

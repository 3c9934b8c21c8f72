package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dframe-go/dframe/auth"
	"github.com/dframe-go/dframe/config"
	"github.com/dframe-go/dframe/internal/sample"
	"github.com/dframe-go/dframe/router"
)

func newRoutesCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			deps := sample.NewDeps()
			if jwtService, err := auth.NewJWTServiceFromConfig(cfg.JWT); err == nil {
				deps.JWT = jwtService
			}
			r, err := sample.NewRouter(cfg, deps)
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), r.Routes(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml)")

	return cmd
}

func printRoutes(w io.Writer, routes []router.RouteInfo, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(routes)
	case "table", "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tKIND\tNAME\tMIDDLEWARE")
	for _, ri := range routes {
		kind := "web"
		if ri.API {
			kind = "api"
		}
		name := ri.Name
		if name == "" {
			name = "-"
		}
		mw := strings.Join(ri.Middleware, ",")
		if mw == "" {
			mw = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ri.Method, ri.Path, kind, name, mw)
	}
	return tw.Flush()
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopivot/adapters/excel"
	"gopivot/app"
	"gopivot/internal/config"
	"gopivot/internal/container"
	"gopivot/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cubeFlags are the selection flags shared by show and export.
type cubeFlags struct {
	env            string
	locale         string
	rows           []string
	columns        []string
	filters        []string
	filterZero     bool
	filterEmpty    bool
	showValueTypes bool
}

func (f *cubeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.env, "env", "", "Environment (default: PIVOT_ENV)")
	cmd.Flags().StringVar(&f.locale, "locale", "fi", "Label language")
	cmd.Flags().StringArrayVar(&f.rows, "row", nil, "Row header band, dim:node,... or dim.level (repeatable)")
	cmd.Flags().StringArrayVar(&f.columns, "column", nil, "Column header band, dim:node,... or dim.level (repeatable)")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "Filter nodes, dim:node,... (repeatable)")
	cmd.Flags().BoolVar(&f.filterZero, "fz", false, "Hide rows and columns that are all zero")
	cmd.Flags().BoolVar(&f.filterEmpty, "fe", false, "Hide rows and columns without values")
	cmd.Flags().BoolVar(&f.showValueTypes, "svt", false, "Also load confidence limits and sample sizes")
}

func (f *cubeFlags) request(cfg *config.Config, cube string) (app.CubeRequest, error) {
	req := app.CubeRequest{
		Env:            f.env,
		Locale:         f.locale,
		Cube:           cube,
		FilterZero:     f.filterZero,
		FilterEmpty:    f.filterEmpty,
		ShowValueTypes: f.showValueTypes,
		View:           "cli",
	}
	if req.Env == "" {
		req.Env = cfg.Pivot.Env
	}
	if host, err := os.Hostname(); err == nil {
		req.Host = host
	}
	for _, s := range f.rows {
		spec, err := app.ParseHeaderSpec(s)
		if err != nil {
			return req, err
		}
		req.Rows = append(req.Rows, spec)
	}
	for _, s := range f.columns {
		spec, err := app.ParseHeaderSpec(s)
		if err != nil {
			return req, err
		}
		req.Columns = append(req.Columns, spec)
	}
	for _, s := range f.filters {
		refs, err := app.ParseNodeRefs(s)
		if err != nil {
			return req, err
		}
		req.Filters = append(req.Filters, refs...)
	}
	return req, nil
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "pivotctl",
		Short:        "Render, export and administer statistical cubes",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newShowCmd(),
		newExportCmd(),
		newMigrateCmd(),
		newSeedSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer loads the configuration, opens the database and runs fn.
func withContainer(ctx context.Context, fn func(*container.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	if err := c.Open(ctx); err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func newShowCmd() *cobra.Command {
	var flags cubeFlags

	cmd := &cobra.Command{
		Use:   "show [cube]",
		Short: "Print a filtered cube as a table",
		Long: `Render a cube and print it as an aligned text table.

Example: pivotctl show health.sotkanet.population --row region.country --column time:2019,2020 --filter measure:count --fz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *container.Container) error {
				req, err := flags.request(c.Config, args[0])
				if err != nil {
					return err
				}
				view, err := c.Cubes.Render(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printView(cmd.OutOrStdout(), view)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	var flags cubeFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export [cube]",
		Short: "Write a filtered cube to an xlsx or csv file",
		Long: `Render a cube and write it as a spreadsheet. The format follows the
extension of --output.

Example: pivotctl export health.sotkanet.population --row region.country --column time.year -o population.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := excel.ParseFormat(filepath.Ext(output))
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), func(c *container.Container) error {
				req, err := flags.request(c.Config, args[0])
				if err != nil {
					return err
				}
				view, err := c.Cubes.Render(cmd.Context(), req)
				if err != nil {
					return err
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				if err := c.Exporter.Write(f, view, format); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(view.Rows), output)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "cube.xlsx", "Output file (.xlsx or .csv)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the usage log tables of an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *container.Container) error {
				if env == "" {
					env = c.Config.Pivot.Env
				}
				if err := c.Migrate(cmd.Context(), env); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migrated environment %s\n", env)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "Environment (default: PIVOT_ENV)")
	return cmd
}

func newSeedSampleCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "seed-sample",
		Short: "Load the sample population cube for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *container.Container) error {
				if env == "" {
					env = c.Config.Pivot.Env
				}
				if err := c.Migrate(cmd.Context(), env); err != nil {
					return err
				}
				schema, err := c.Environments.Schema(env)
				if err != nil {
					return err
				}
				sample := testkit.NewSampleCube()
				if err := sample.Seed(cmd.Context(), c.DB, schema); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s into environment %s\n", testkit.SampleCubeID, env)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "Environment (default: PIVOT_ENV)")
	return cmd
}

// printView writes the header bands, row headers and cells tab aligned.
func printView(w io.Writer, view *app.CubeView) error {
	fmt.Fprintln(w, view.Name)
	for _, f := range view.Filters {
		fmt.Fprintf(w, "  %s: %s\n", f.DimensionLabel, f.Label)
	}
	if view.Empty {
		fmt.Fprintln(w, "(no data)")
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	pad := strings.Repeat("\t", len(view.RowBands))
	for b := range view.ColumnBands {
		labels := make([]string, len(view.Columns))
		for c, headers := range view.Columns {
			labels[c] = headers[b].Label
		}
		fmt.Fprintf(tw, "%s%s\t\n", pad, strings.Join(labels, "\t"))
	}
	for r, headers := range view.Rows {
		labels := make([]string, 0, len(headers)+len(view.Cells[r]))
		for _, h := range headers {
			labels = append(labels, h.Label)
		}
		for c, v := range view.Cells[r] {
			if view.HasValueTypes() {
				v = withCompanions(v, view.Companions[r][c])
			}
			labels = append(labels, v)
		}
		fmt.Fprintf(tw, "%s\t\n", strings.Join(labels, "\t"))
	}
	return tw.Flush()
}

func withCompanions(v string, cv app.CompanionView) string {
	if cv.CILower != "" || cv.CIUpper != "" {
		v += fmt.Sprintf(" [%s, %s]", cv.CILower, cv.CIUpper)
	}
	if cv.SampleSize != "" {
		v += " n=" + cv.SampleSize
	}
	return v
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabex/internal/chart"
	"github.com/KaramelBytes/tabex/internal/filter"
	"github.com/KaramelBytes/tabex/internal/utils"
)

var (
	chMode          string
	chKind          string
	chX             string
	chY             string
	chTarget        string
	chColumns       []string
	chLabels        string
	chFilterColumn  string
	chFilterPattern string
	chFormat        string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file|url>",
	Short: "Build a chart descriptor for a column selection",
	Long: `Validate a plot request against the table and print the chart descriptor.

Numeric mode plots --y against --x row by row (bar, violin, box, line, area).
Categorical mode groups rows by --x or each of --columns (count, bar, violin,
box), using --target as the hue or the numeric value to distribute.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := chart.ParseMode(chMode)
		if err != nil {
			return err
		}
		kind, err := chart.ParseKind(chKind)
		if err != nil {
			return err
		}
		c := settings()
		labels := chLabels
		if !cmd.Flags().Changed("labels") {
			labels = c.LabelMode
		}
		req := chart.Request{
			Mode:    mode,
			Kind:    kind,
			X:       chX,
			Y:       chY,
			Target:  chTarget,
			Columns: chColumns,
			Labels:  chart.LabelMode(labels),
			Style: chart.Style{
				LabelRotation: c.LabelRotation,
				Width:         c.FigureWidth,
				Height:        c.FigureHeight,
				Palette:       c.Palette,
			},
		}

		t, _, err := loadTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if chFilterColumn != "" {
			if t, err = filter.Apply(t, filter.Predicate{Column: chFilterColumn, Pattern: chFilterPattern}); err != nil {
				return err
			}
		}
		d, err := chart.Build(t, req)
		if err != nil {
			return err
		}

		var b []byte
		switch strings.ToLower(chFormat) {
		case "json", "":
			b, err = utils.PrettyJSON(d)
		case "yaml":
			b, err = yaml.Marshal(d)
		default:
			return fmt.Errorf("unsupported --format: %s (use json|yaml)", chFormat)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chMode, "mode", "numeric", "column interpretation: numeric|categorical")
	chartCmd.Flags().StringVar(&chKind, "kind", "", "plot kind: count|bar|violin|box|line|area")
	chartCmd.Flags().StringVar(&chX, "x", "", "x column (categorical mode: grouping column)")
	chartCmd.Flags().StringVar(&chY, "y", "", "y column")
	chartCmd.Flags().StringVar(&chTarget, "target", "", "hue (count/bar) or numeric value column (box/violin)")
	chartCmd.Flags().StringSliceVar(&chColumns, "columns", nil, "categorical mode: one series per comma-separated column")
	chartCmd.Flags().StringVar(&chLabels, "labels", "none", "bar labels: none|count|percent")
	chartCmd.Flags().StringVar(&chFilterColumn, "filter-column", "", "filter rows on this column first")
	chartCmd.Flags().StringVar(&chFilterPattern, "filter-pattern", "", "substring for --filter-column")
	chartCmd.Flags().StringVar(&chFormat, "format", "json", "output format: json|yaml")
	_ = chartCmd.MarkFlagRequired("kind")
}

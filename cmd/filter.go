package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabex/internal/analysis"
	"github.com/KaramelBytes/tabex/internal/filter"
	"github.com/KaramelBytes/tabex/internal/utils"
)

var (
	filtColumn     string
	filtPattern    string
	filtDistinct   bool
	filtOutputPath string
	filtRows       int
)

var filterCmd = &cobra.Command{
	Use:   "filter <file|url>",
	Short: "Keep rows whose column contains a substring",
	Long: `Keep rows whose --column value contains --pattern (case-sensitive).
Missing values never match. With --distinct, list the values --column can
be filtered on instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if filtColumn == "" {
			return fmt.Errorf("--column is required")
		}
		t, _, err := loadTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if filtDistinct {
			values, err := analysis.DistinctValues(t, filtColumn)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join(values, "\n"))
			return nil
		}

		p := filter.Predicate{Column: filtColumn, Pattern: filtPattern}
		view, err := filter.Apply(t, p)
		if err != nil {
			return err
		}
		if filtOutputPath != "" {
			var buf bytes.Buffer
			if err := view.WriteCSV(&buf); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(filtOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote %d of %d rows to %s\n", view.NumRows(), t.NumRows(), filtOutputPath)
			return nil
		}
		n := 0
		if cmd.Flags().Changed("rows") {
			n = max(filtRows, 1)
		}
		fmt.Fprintf(out, "%s: %d of %d rows\n\n", p, view.NumRows(), t.NumRows())
		fmt.Fprint(out, view.Markdown(settings().ClampPreview(n)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVarP(&filtColumn, "column", "c", "", "column to filter on")
	filterCmd.Flags().StringVarP(&filtPattern, "pattern", "p", "", "substring to look for (empty keeps every present value)")
	filterCmd.Flags().BoolVar(&filtDistinct, "distinct", false, "list distinct values of --column instead of filtering")
	filterCmd.Flags().StringVarP(&filtOutputPath, "output", "o", "", "write the filtered rows as CSV to this path")
	filterCmd.Flags().IntVarP(&filtRows, "rows", "n", 0, "rows to print, 1-100 (default from preview_rows)")
}

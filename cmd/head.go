package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	headRows    int
	headColumns []string
)

var headCmd = &cobra.Command{
	Use:   "head <file|url>",
	Short: "Print the first rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(headColumns) > 0 {
			if t, err = t.Select(headColumns...); err != nil {
				return err
			}
		}
		n := 0
		if cmd.Flags().Changed("rows") {
			n = max(headRows, 1)
		}
		n = settings().ClampPreview(n)
		fmt.Fprint(cmd.OutOrStdout(), t.Markdown(n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headCmd)
	headCmd.Flags().IntVarP(&headRows, "rows", "n", 0, "number of rows to show, 1-100 (default from preview_rows)")
	headCmd.Flags().StringSliceVar(&headColumns, "columns", nil, "comma-separated columns to show")
}

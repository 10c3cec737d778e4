package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabex/internal/analysis"
	"github.com/KaramelBytes/tabex/internal/dataset"
	"github.com/KaramelBytes/tabex/internal/utils"
)

var (
	profOutputPath string
	profDtypes     bool
	profMode       string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file|url>",
	Short: "Profile a CSV/XLSX table and print a Markdown summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := analysis.ParseReportMode(profMode)
		if err != nil {
			return err
		}
		t, _, err := loadTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p := analysis.Describe(t)

		var md string
		if profDtypes {
			md = dtypesMarkdown(p)
		} else {
			md = p.Render(mode)
		}

		if profOutputPath != "" {
			if err := utils.SafeWriteFile(profOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func dtypesMarkdown(p *analysis.Profile) string {
	var b strings.Builder
	b.WriteString("| column | kind |\n| --- | --- |\n")
	for _, d := range p.Dtypes() {
		fmt.Fprintf(&b, "| %s | %s |\n", dataset.SafeVal(dataset.SafeName(d.Name)), d.Kind)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().BoolVar(&profDtypes, "dtypes", false, "print only the column kinds")
	profileCmd.Flags().StringVar(&profMode, "mode", "full", "report sections: descriptive|exploratory|visual|full")
}

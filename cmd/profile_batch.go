package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabex/internal/analysis"
	"github.com/KaramelBytes/tabex/internal/utils"
)

var (
	pbOutDir string
	pbMode   string
	pbQuiet  bool
)

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile multiple CSV/XLSX files with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := utils.ExpandGlobs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		mode, err := analysis.ParseReportMode(pbMode)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		total := len(files)
		for i, path := range files {
			if !pbQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, name, err := loadTable(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			md := analysis.Describe(t).Render(mode)

			if pbOutDir == "" {
				fmt.Fprintf(out, "## %s\n\n%s\n", name, md)
				continue
			}
			base := strings.TrimSuffix(name, filepath.Ext(name))
			outFile, err := utils.UniquePath(pbOutDir, base, ".summary.md")
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !pbQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", outFile)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	profileBatchCmd.Flags().StringVar(&pbOutDir, "out-dir", "", "directory for <name>.summary.md files (default: print to stdout)")
	profileBatchCmd.Flags().StringVar(&pbMode, "mode", "full", "report sections: descriptive|exploratory|visual|full")
	profileBatchCmd.Flags().BoolVar(&pbQuiet, "quiet", false, "suppress progress and non-essential output")
}

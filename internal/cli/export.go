package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a statistics export (csv, xlsx or pdf)",
	Long: `Download a statistics export for a period.

The file is written to --output, or to the name suggested by the backend
in the current directory.

Examples:
  statsctl export --date 2024-06-01
  statsctl export --period this_month --format pdf -o june.pdf`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// Flags
var (
	exportPeriod periodFlags
	exportFormat string
	exportOutput string
)

func init() {
	exportPeriod.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format: csv, xlsx, pdf")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (defaults to the suggested file name)")
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "csv", "xlsx", "pdf":
	default:
		return fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, exportFormat)
	}
	period, err := exportPeriod.selection()
	if err != nil {
		return err
	}
	e, err := newEnv()
	if err != nil {
		return err
	}

	file, err := e.stats.Export(cmd.Context(), period, exportFormat)
	if err != nil {
		return err
	}

	output := exportOutput
	if output == "" {
		output = filepath.Base(file.Filename)
	}
	if err := os.WriteFile(output, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", output, len(file.Data))
	return nil
}

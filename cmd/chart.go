package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
	"github.com/KaramelBytes/csvcharts/internal/dashboard"
	"github.com/KaramelBytes/csvcharts/internal/render"
	"github.com/KaramelBytes/csvcharts/internal/utils"
)

var (
	chartX         string
	chartY         string
	chartKind      string
	chartBins      int
	chartFormat    string
	chartOutput    string
	chartDelimiter string
	chartSummary   bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <dataset|file|url>",
	Short: "Draw a bar, histogram or scatter chart from selected columns",
	Long: `Draw a chart from one or two columns.

With --kind auto (the default) a numeric X column gives a histogram, a categorical
X column gives frequency bars, and a numeric X with a numeric Y gives a scatter plot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := analysis.ParseMode(chartKind)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("bins") && chartBins < 1 {
			return fmt.Errorf("--bins must be at least 1")
		}
		if chartBins > analysis.MaxBins {
			return fmt.Errorf("--bins must be at most %d", analysis.MaxBins)
		}
		delim, err := parseDelimiter(chartDelimiter)
		if err != nil {
			return err
		}
		ensureConfig()
		backend, err := render.BackendFor(chartFormat, cfg.ChartWidth, cfg.ChartHeight)
		if err != nil {
			return err
		}
		surface := render.NewSurface(backend)
		defer surface.Close()

		ctrl := dashboard.New(newLoader(delim), newAggregator(), surface, log)
		if err := ctrl.Open(cmd.Context(), resolveSource(args[0])); err != nil {
			return err
		}
		if chartSummary {
			fmt.Fprint(cmd.ErrOrStderr(), ctrl.Summary())
		}

		out, err := ctrl.Render(dashboard.Selection{X: chartX, Y: chartY, Mode: mode, Bins: chartBins})
		if err != nil {
			return err
		}
		if out.Warning != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", out.Warning)
		}

		var buf bytes.Buffer
		if _, err := out.Chart.WriteTo(&buf); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		path := chartOutput
		if path == "" {
			path = defaultChartPath(ctrl.Dataset().Name, ctrl.Selection().X, backend.Extension())
		}
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%s, %d entries) to %s\n", out.Title, out.Mode, out.Result.Len(), path)
		return nil
	},
}

// defaultChartPath names the output <dataset>-<x>.<ext> inside output_dir.
func defaultChartPath(dataset, x, ext string) string {
	base := strings.TrimSuffix(filepath.Base(dataset), filepath.Ext(dataset))
	name := utils.SlugName(base) + "-" + utils.SlugName(x) + ext
	dir := "."
	if cfg != nil && cfg.OutputDir != "" {
		dir = cfg.OutputDir
	}
	return filepath.Join(dir, name)
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartX, "x", "x", "", "X column (default: first column)")
	chartCmd.Flags().StringVarP(&chartY, "y", "y", "", "Y column, used by scatter charts")
	chartCmd.Flags().StringVarP(&chartKind, "kind", "k", "auto", "chart kind: auto|bar|histogram|scatter")
	chartCmd.Flags().IntVar(&chartBins, "bins", 0, "histogram bin count (default from config)")
	chartCmd.Flags().StringVarP(&chartFormat, "format", "f", "html", "output format: html|png|svg")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "output path (default <output_dir>/<dataset>-<x>.<ext>)")
	chartCmd.Flags().StringVar(&chartDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	chartCmd.Flags().BoolVar(&chartSummary, "summary", false, "also print the dataset summary to stderr")
}

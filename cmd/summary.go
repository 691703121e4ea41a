package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
	"github.com/KaramelBytes/csvcharts/internal/utils"
)

var (
	sumOutputPath string
	sumDelimiter  string
	sumSampleSize int
	sumDescribe   bool
	sumTopValues  int
	sumSampleRows int
)

var summaryCmd = &cobra.Command{
	Use:   "summary <dataset|file|url>",
	Short: "Print row and column counts and the inferred type of every column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(sumDelimiter)
		if err != nil {
			return err
		}
		agg := newAggregator()
		if sumSampleSize > 0 {
			agg.Inferencer.SampleSize = sumSampleSize
		}
		ds, err := newLoader(delim).Load(cmd.Context(), resolveSource(args[0]))
		if err != nil {
			return err
		}

		var text string
		if sumDescribe {
			opt := analysis.DefaultOptions()
			if sumTopValues > 0 {
				opt.TopValues = sumTopValues
			}
			if sumSampleRows >= 0 {
				opt.SampleRows = sumSampleRows
			}
			text = analysis.Profile(ds, agg.Inferencer, opt).Markdown()
		} else {
			text = analysis.Summarize(ds, agg.Inferencer).Text()
		}

		// Decide where to write: --output path or stdout
		if sumOutputPath != "" {
			if err := utils.SafeWriteFile(sumOutputPath, []byte(text)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutputPath)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the summary")
	summaryCmd.Flags().StringVar(&sumDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default ',' or tab for .tsv)")
	summaryCmd.Flags().IntVar(&sumSampleSize, "sample-size", 0, "rows sampled per column for type inference (default from config)")
	summaryCmd.Flags().BoolVar(&sumDescribe, "describe", false, "print a full Markdown profile with per-column statistics")
	summaryCmd.Flags().IntVar(&sumTopValues, "top-values", 8, "with --describe: most frequent values listed per categorical column")
	summaryCmd.Flags().IntVar(&sumSampleRows, "sample-rows", 5, "with --describe: number of sample rows to include")
}

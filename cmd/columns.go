package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
)

var colDelimiter string

var columnsCmd = &cobra.Command{
	Use:   "columns <dataset|file|url>",
	Short: "List the columns available for the X and Y selectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(colDelimiter)
		if err != nil {
			return err
		}
		agg := newAggregator()
		ds, err := newLoader(delim).Load(cmd.Context(), resolveSource(args[0]))
		if err != nil {
			return err
		}
		sum := analysis.Summarize(ds, agg.Inferencer)
		if len(sum.Columns) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no columns)")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tKIND\tSAMPLE")
		for _, c := range sum.Columns {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Kind, c.Sample)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().StringVar(&colDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
}

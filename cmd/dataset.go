package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dsDescription string
	dsVerify      bool
)

var datasetCmd = &cobra.Command{
	Use:     "dataset",
	Aliases: []string{"datasets"},
	Short:   "Manage the catalog of named datasets",
}

var datasetAddCmd = &cobra.Command{
	Use:   "add <name> <file|url>",
	Short: "Add a named dataset to the catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCatalog()
		if err != nil {
			return err
		}
		if dsVerify {
			ds, err := newLoader(0).Load(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			log.WithField("rows", ds.Len()).Debug("dataset verified")
		}
		e, err := c.Add(args[0], args[1], dsDescription)
		if err != nil {
			return err
		}
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added dataset '%s' (%s)\n", e.Name, e.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "  Catalog: %s\n", c.RootDir())
		return nil
	},
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCatalog()
		if err != nil {
			return err
		}
		entries := c.List()
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no datasets)")
			return nil
		}
		for _, e := range entries {
			if e.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s: %s (%s)\n", e.Name, e.Source, e.Description)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s: %s\n", e.Name, e.Source)
			}
		}
		return nil
	},
}

var datasetRemoveCmd = &cobra.Command{
	Use:     "remove <name|id>",
	Aliases: []string{"rm"},
	Short:   "Remove a dataset from the catalog",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCatalog()
		if err != nil {
			return err
		}
		if err := c.Remove(args[0]); err != nil {
			return err
		}
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed dataset '%s'\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetAddCmd, datasetListCmd, datasetRemoveCmd)
	datasetAddCmd.Flags().StringVarP(&dsDescription, "desc", "d", "", "dataset description")
	datasetAddCmd.Flags().BoolVar(&dsVerify, "verify", false, "load the source once before adding it")
}

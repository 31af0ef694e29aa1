package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yashubustudio/assessor/assessment"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List assessment types and whether their checklist is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := assessment.NewFileLoader(cfg, logger)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tNAME\tAVAILABLE\tPATH")
		for _, e := range assessment.Catalog() {
			path := loader.Path(e.Type)
			available := "no"
			if _, err := os.Stat(path); err == nil {
				available = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Type, e.Name, available, path)
		}
		return tw.Flush()
	},
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [package]",
	Short: "Extract the files of a package",
	Long: `Extract every part of the package into a directory. Without --out a
temporary directory named after the package is created.

Extracting into the same directory again is skipped when the package has not
changed, unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(conf.GetString("out"), args[0])
		if err != nil {
			return err
		}

		m, err := svc.Extract(cmd.Context(), args[0], extractOptions())
		if err != nil {
			return err
		}

		if conf.GetBool("json") {
			return writeJSON(cmd.OutOrStdout(), m)
		}

		out := cmd.OutOrStdout()
		if m.Skipped {
			fmt.Fprintf(out, "Unchanged, nothing written to %s\n", m.OutputDir)
			return nil
		}
		fmt.Fprintf(out, "Extracted %d files to %s\n", len(m.Entries), m.OutputDir)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, e := range m.Entries {
			fmt.Fprintf(tw, "  %s\t%s\t%d\n", e.Name, e.ContentType, e.Size)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("out", "o", "", "Output directory")
	extractCmd.Flags().StringSlice("include", nil, "Only extract files matching these globs")
	extractCmd.Flags().StringSlice("exclude", nil, "Skip files matching these globs")
	extractCmd.Flags().Bool("force", false, "Extract even if the package is unchanged")
	extractCmd.Flags().Bool("rewrite-cids", false, "Replace cid: references with file names")
	extractCmd.Flags().Bool("json", false, "Output the manifest as JSON")
}

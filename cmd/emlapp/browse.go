package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/emlapp/internal/platform"
)

// openBrowser is swapped out in tests.
var openBrowser = platform.OpenBrowser

var browseCmd = &cobra.Command{
	Use:   "browse [package]",
	Short: "Extract a package and open it in the browser",
	Long: `Extract the package and open its entry page (index.html, or the first
HTML file) in the default browser. cid: references are always rewritten so
the page works from the local filesystem.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(conf.GetString("out"), args[0])
		if err != nil {
			return err
		}

		opts := extractOptions()
		opts.RewriteCIDs = true
		m, err := svc.Extract(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		entry := m.EntryPoint()
		if entry == "" {
			return fmt.Errorf("no HTML page in %s", args[0])
		}
		page := filepath.Join(m.OutputDir, entry)
		fmt.Fprintln(cmd.OutOrStdout(), page)

		if conf.GetBool("no-open") {
			return nil
		}
		if err := openBrowser(page); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().StringP("out", "o", "", "Output directory")
	browseCmd.Flags().Bool("no-open", false, "Only extract and print the page path")
}

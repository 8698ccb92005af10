package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/emlapp"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of emlapp",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "emlapp version %s\n", strings.TrimSpace(emlapp.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

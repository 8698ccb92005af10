package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/emlapp"
	"github.com/aretw0/emlapp/pkg/pack"
)

var packCmd = &cobra.Command{
	Use:   "pack [dir]",
	Short: "Build a self-extracting package from a directory",
	Long: `Pack the regular files at the top level of a directory into an
executable package. Hidden files and subdirectories are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		out := conf.GetString("output")
		if out == "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			out = filepath.Base(abs) + ".eml.sh"
		}

		err := pack.BuildFile(dir, out, pack.Options{
			Name:        conf.GetString("name"),
			Version:     conf.GetString("app-version"),
			Description: conf.GetString("description"),
			Generator:   "emlapp " + strings.TrimSpace(emlapp.Version),
			Include:     conf.GetStringSlice("include"),
			Exclude:     conf.GetStringSlice("exclude"),
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringP("output", "o", "", "Package file (default <dir>.eml.sh)")
	packCmd.Flags().String("name", "", "App name (default the directory name)")
	packCmd.Flags().String("app-version", "", "App version")
	packCmd.Flags().String("description", "", "App description")
	packCmd.Flags().StringSlice("include", nil, "Only pack files matching these globs")
	packCmd.Flags().StringSlice("exclude", nil, "Skip files matching these globs")
}

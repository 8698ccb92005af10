package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/emlapp/internal/platform"
	"github.com/aretw0/emlapp/pkg/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [package]",
	Short: "Save a screenshot of a package's entry page",
	Args:  cobra.ExactArgs(1),
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

		png := conf.GetString("output")
		if png == "" {
			png = platform.PackageStem(args[0]) + ".png"
		}

		err = render.ScreenshotFile(cmd.Context(), filepath.Join(m.OutputDir, entry), png, render.Options{
			Width:    conf.GetInt("width"),
			Height:   conf.GetInt("height"),
			FullPage: conf.GetBool("full-page"),
			Bin:      conf.GetString("browser"),
			Timeout:  conf.GetDuration("timeout"),
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), png)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "PNG file (default <package>.png)")
	renderCmd.Flags().String("out", "", "Directory to extract into")
	renderCmd.Flags().Int("width", 1280, "Viewport width")
	renderCmd.Flags().Int("height", 800, "Viewport height")
	renderCmd.Flags().Bool("full-page", false, "Capture the whole page")
	renderCmd.Flags().String("browser", "", "Chromium binary (found or downloaded when empty)")
	renderCmd.Flags().Duration("timeout", 30*time.Second, "Page load timeout")
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/emlapp/internal/platform"
	"github.com/aretw0/emlapp/pkg/container"
)

// newDocker is swapped out in tests.
var newDocker = func() *container.Docker {
	return container.NewDocker(
		container.WithBinary(conf.GetString("docker")),
		container.WithOutput(os.Stdout, os.Stderr),
	)
}

var runCmd = &cobra.Command{
	Use:   "run [package]",
	Short: "Build and run the package's Dockerfile",
	Long: `Extract the package, build its Dockerfile as webapp-<name> and run it,
publishing the container's port 80 on --port. The container is removed when it
stops.`,
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

		dockerfile, err := container.FindDockerfile(m)
		if err != nil {
			return err
		}

		docker := newDocker()
		if !docker.Available(cmd.Context()) {
			return fmt.Errorf("docker is not available")
		}

		image := container.ImageName(platform.PackageStem(args[0]))
		port := conf.GetInt("port")
		logger.Info("building image", "image", image, "dir", filepath.Dir(dockerfile))
		if err := docker.Build(cmd.Context(), image, filepath.Dir(dockerfile)); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Running %s on http://localhost:%d/\n", image, port)
		return docker.Run(cmd.Context(), image, port)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("out", "o", "", "Output directory")
	runCmd.Flags().Int("port", 8080, "Host port to publish")
	runCmd.Flags().String("docker", "docker", "Container CLI to use")
}

// Package container builds and runs an extracted package with the docker CLI.
package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/emlapp/pkg/core"
)

// ErrNoDockerfile is returned when the extracted files contain no Dockerfile.
var ErrNoDockerfile = errors.New("package has no Dockerfile")

// ContainerPort is the port the packaged web server listens on.
const ContainerPort = 80

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// Tests inject a helper-process implementation.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Docker engine.
	Option func(*Docker)

	// Docker drives the docker CLI.
	Docker struct {
		binary      string
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
	}
)

// WithExecCommand replaces the command constructor.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(d *Docker) {
		d.execCommand = fn
	}
}

// WithBinary sets the docker executable (e.g. "podman" or a full path).
func WithBinary(name string) Option {
	return func(d *Docker) {
		d.binary = name
	}
}

// WithOutput sets where build and run output goes.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(d *Docker) {
		d.stdout = stdout
		d.stderr = stderr
	}
}

// NewDocker creates a Docker engine.
func NewDocker(opts ...Option) *Docker {
	d := &Docker{
		binary:      "docker",
		execCommand: exec.CommandContext,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Available reports whether the docker CLI can reach a daemon.
func (d *Docker) Available(ctx context.Context) bool {
	cmd := d.execCommand(ctx, d.binary, "version", "--format", "{{.Server.Version}}")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run() == nil
}

// Version returns the daemon version.
func (d *Docker) Version(ctx context.Context) (string, error) {
	cmd := d.execCommand(ctx, d.binary, "version", "--format", "{{.Server.Version}}")
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("docker version: %w: %s", err, strings.TrimSpace(errOut.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// Build runs docker build -t image dir.
func (d *Docker) Build(ctx context.Context, image, dir string) error {
	return d.run(ctx, "build", "-t", image, dir)
}

// Run runs the image in the foreground, publishing hostPort on the
// container's port 80. The container is removed when it exits.
func (d *Docker) Run(ctx context.Context, image string, hostPort int) error {
	return d.run(ctx, BuildRunArgs(image, hostPort)...)
}

// BuildRunArgs returns the docker arguments used by Run.
func BuildRunArgs(image string, hostPort int) []string {
	return []string{
		"run", "--rm",
		"-p", strconv.Itoa(hostPort) + ":" + strconv.Itoa(ContainerPort),
		image,
	}
}

func (d *Docker) run(ctx context.Context, args ...string) error {
	cmd := d.execCommand(ctx, d.binary, args...)
	cmd.Stdout = d.stdout
	cmd.Stderr = d.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", d.binary, args[0], err)
	}
	return nil
}

// ImageName returns the image tag for a package stem: webapp-<stem>.
func ImageName(stem string) string {
	return "webapp-" + strings.ToLower(stem)
}

// FindDockerfile returns the path of the Dockerfile listed in m.
func FindDockerfile(m *core.Manifest) (string, error) {
	for _, e := range m.Entries {
		if strings.EqualFold(e.Name, "Dockerfile") {
			if e.Path != "" {
				return e.Path, nil
			}
			return filepath.Join(m.OutputDir, e.Name), nil
		}
	}
	return "", ErrNoDockerfile
}

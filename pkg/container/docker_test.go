package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/emlapp/pkg/core"
)

type invocation struct {
	Name string
	Args []string
}

// commandRecorder captures docker invocations and replays them through
// TestHelperProcess.
type commandRecorder struct {
	Invocations []invocation
	ExitCode    int
	Stdout      string
}

func (m *commandRecorder) CommandFunc() ExecCommandFunc {
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		m.Invocations = append(m.Invocations, invocation{Name: name, Args: args})

		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", m.ExitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", m.Stdout),
		}
		return cmd
	}
}

// TestHelperProcess is not a real test. It stands in for the docker binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	exitCode := 0
	fmt.Sscanf(os.Getenv("GO_HELPER_EXIT_CODE"), "%d", &exitCode)
	os.Exit(exitCode)
}

func TestDockerBuildAndRun(t *testing.T) {
	rec := &commandRecorder{Stdout: "built"}
	var out bytes.Buffer
	d := NewDocker(WithExecCommand(rec.CommandFunc()), WithOutput(&out, &out))
	ctx := context.Background()

	require.NoError(t, d.Build(ctx, "webapp-demo", "/tmp/out"))
	require.NoError(t, d.Run(ctx, "webapp-demo", 8080))

	require.Len(t, rec.Invocations, 2)
	assert.Equal(t, "docker", rec.Invocations[0].Name)
	assert.Equal(t, []string{"build", "-t", "webapp-demo", "/tmp/out"}, rec.Invocations[0].Args)
	assert.Equal(t, []string{"run", "--rm", "-p", "8080:80", "webapp-demo"}, rec.Invocations[1].Args)
	assert.Equal(t, "builtbuilt", out.String())
}

func TestDockerFailure(t *testing.T) {
	rec := &commandRecorder{ExitCode: 1}
	d := NewDocker(WithExecCommand(rec.CommandFunc()), WithBinary("podman"), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	err := d.Build(context.Background(), "webapp-demo", ".")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "podman build"))
	assert.False(t, d.Available(context.Background()))
}

func TestDockerVersion(t *testing.T) {
	rec := &commandRecorder{Stdout: "27.1.0\n"}
	d := NewDocker(WithExecCommand(rec.CommandFunc()))

	v, err := d.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "27.1.0", v)
	assert.True(t, d.Available(context.Background()))
	assert.Equal(t, []string{"version", "--format", "{{.Server.Version}}"}, rec.Invocations[0].Args)
}

func TestFindDockerfile(t *testing.T) {
	m := &core.Manifest{OutputDir: "/out", Entries: []core.ManifestEntry{
		{Name: "index.html", Path: "/out/index.html"},
		{Name: "Dockerfile"},
	}}
	p, err := FindDockerfile(m)
	require.NoError(t, err)
	assert.Equal(t, "/out/Dockerfile", p)

	_, err = FindDockerfile(&core.Manifest{})
	assert.True(t, errors.Is(err, ErrNoDockerfile))
}

func TestImageName(t *testing.T) {
	assert.Equal(t, "webapp-dashboard", ImageName("Dashboard"))
}

package cli

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/gpumon/internal/acquire"
	acqtesting "github.com/rileyhilliard/gpumon/internal/acquire/testing"
	"github.com/rileyhilliard/gpumon/internal/config"
)

const twoGPUs = "1, Card Y, 85, 10, 2000, 8000, 80.0\n0, Card X, 75, 42, 1000, 8000, 120.5\n"

// isolate runs the test in an empty directory with an empty home, so no
// config file is discovered.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

// useFake makes every command read from fake.
func useFake(t *testing.T, fake *acqtesting.FakeAcquirer) {
	t.Helper()
	orig := newAcquirer
	newAcquirer = func(*config.Config) (acquire.Acquirer, error) { return fake, nil }
	t.Cleanup(func() { newAcquirer = orig })
}

// testCommand returns a command carrying the config flags, parsed from args.
func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "gpumon-test"}
	addConfigFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	cmd.SetContext(context.Background())
	return cmd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

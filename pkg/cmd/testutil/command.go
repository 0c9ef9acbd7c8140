package testutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pseudomuto/chsync/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// RunCommand executes command under a throwaway root and returns what it
// wrote to stdout.
func RunCommand(t *testing.T, command *cli.Command, args ...string) (string, error) {
	t.Helper()
	return RunCommandWithInput(context.Background(), t, command, "", args...)
}

// RunCommandWithInput is RunCommand with a custom context and stdin.
func RunCommandWithInput(ctx context.Context, t *testing.T, command *cli.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := &cli.Command{
		Name:     "test",
		Reader:   strings.NewReader(stdin),
		Writer:   &out,
		Commands: []*cli.Command{command},
	}

	// Prepend command name to args
	fullArgs := append([]string{"test", command.Name}, args...)

	err := app.Run(ctx, fullArgs)
	return out.String(), err
}

// LoadConfig parses a configuration for a test.
func LoadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfig(strings.NewReader(yaml))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

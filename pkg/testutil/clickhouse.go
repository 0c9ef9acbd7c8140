package testutil

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcch "github.com/testcontainers/testcontainers-go/modules/clickhouse"
)

// ClickHouseImage is the server image integration tests run against.
const ClickHouseImage = "clickhouse/clickhouse-server:25.7-alpine"

// ClickHouse is a throwaway server started for a test.
type ClickHouse struct {
	Addr     string
	HTTPAddr string
	Username string
	Password string
}

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	cmd := exec.CommandContext(t.Context(), "docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartClickHouse runs a ClickHouse container for the duration of the test.
// It skips under -short or when Docker is unavailable.
func StartClickHouse(t *testing.T) *ClickHouse {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	SkipIfNoDocker(t)

	ctx := t.Context()
	ch := &ClickHouse{Username: "default", Password: "password"}

	container, err := tcch.Run(ctx,
		ClickHouseImage,
		tcch.WithUsername(ch.Username),
		tcch.WithPassword(ch.Password),
	)
	require.NoError(t, err, "failed to start ClickHouse container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate ClickHouse container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	native, err := container.MappedPort(ctx, nat.Port("9000/tcp"))
	require.NoError(t, err)
	http, err := container.MappedPort(ctx, nat.Port("8123/tcp"))
	require.NoError(t, err)

	ch.Addr = net.JoinHostPort(host, native.Port())
	ch.HTTPAddr = net.JoinHostPort(host, http.Port())
	return ch
}

// Client connects to the server, retrying while it finishes starting. The
// connection is closed when the test ends.
func (ch *ClickHouse) Client(t *testing.T, opts clickhouse.ClientOptions) *clickhouse.Client {
	t.Helper()

	opts.Username = ch.Username
	opts.Password = ch.Password

	addr := ch.Addr
	if opts.Protocol == clickhouse.HTTP {
		addr = ch.HTTPAddr
	}

	var (
		client *clickhouse.Client
		err    error
	)
	for attempt := 1; attempt <= 3; attempt++ {
		client, err = clickhouse.NewClientWithOptions(t.Context(), addr, opts)
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	require.NoError(t, err, "failed to connect to ClickHouse")

	t.Cleanup(func() { _ = client.Close() })
	return client
}

// CreateDatabase creates a uniquely named database and drops it when the
// test ends.
func CreateDatabase(t *testing.T, client *clickhouse.Client) string {
	t.Helper()

	name := fmt.Sprintf("test_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))
	require.NoError(t, client.Exec(t.Context(), "CREATE DATABASE "+name))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Exec(ctx, "DROP DATABASE IF EXISTS "+name)
	})
	return name
}

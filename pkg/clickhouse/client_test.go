package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		opts     ClientOptions
		addr     string
		database string
		user     string
		protocol clickhouse.Protocol
		tls      bool
	}{
		{
			name:     "host and port",
			dsn:      "localhost:9000",
			addr:     "localhost:9000",
			protocol: clickhouse.Native,
		},
		{
			name:     "clickhouse url",
			dsn:      "clickhouse://reader:pw@ch.internal:9000/app",
			addr:     "ch.internal:9000",
			database: "app",
			user:     "reader",
			protocol: clickhouse.Native,
		},
		{
			name:     "options override url",
			dsn:      "clickhouse://reader:pw@ch.internal:9000/app",
			opts:     ClientOptions{Database: "test", Username: "writer"},
			addr:     "ch.internal:9000",
			database: "test",
			user:     "writer",
			protocol: clickhouse.Native,
		},
		{
			name:     "http protocol",
			dsn:      "ch.internal:8123",
			opts:     ClientOptions{Protocol: HTTP},
			addr:     "ch.internal:8123",
			protocol: clickhouse.HTTP,
		},
		{
			name:     "secure without client certs",
			dsn:      "ch.cloud:9440",
			opts:     ClientOptions{Secure: true},
			addr:     "ch.cloud:9440",
			protocol: clickhouse.Native,
			tls:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := buildOptions(tt.dsn, tt.opts)
			require.NoError(t, err)
			require.Equal(t, []string{tt.addr}, options.Addr)
			require.Equal(t, tt.database, options.Auth.Database)
			require.Equal(t, tt.user, options.Auth.Username)
			require.Equal(t, tt.protocol, options.Protocol)
			require.Equal(t, tt.tls, options.TLS != nil)
			require.Equal(t, consts.ProbeTimeout, options.DialTimeout)
		})
	}
}

func TestBuildOptionsBadTLSFiles(t *testing.T) {
	_, err := buildOptions("localhost:9440", ClientOptions{
		TLSSettings: TLSSettings{CertFile: "a", KeyFile: "b", CAFile: "c"},
	})
	require.Error(t, err)
}

func TestRedactSQL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			input:    "INSERT INTO t.x SELECT * FROM remote('h:9000', 'app.orders', 'reader', 's3cr3t')",
			expected: "INSERT INTO t.x SELECT * FROM remote('h:9000', 'app.orders', 'reader', '***')",
		},
		{
			input:    "SELECT * FROM remoteSecure('h:9440','app.orders','reader','it\\'s')",
			expected: "SELECT * FROM remoteSecure('h:9440','app.orders','reader','***')",
		},
		{
			input:    "SELECT * FROM remote('h:9000', 'app.orders')",
			expected: "SELECT * FROM remote('h:9000', 'app.orders')",
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, RedactSQL(tt.input))
	}
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, classify(ctx, "SELECT 1", nil))

	t.Run("exception", func(t *testing.T) {
		err := classify(ctx, "SHOW CREATE TABLE app.x", &clickhouse.Exception{Code: 60, Message: "Table app.x does not exist"})
		re, ok := schema.AsRemote(err)
		require.True(t, ok)
		require.EqualValues(t, 60, re.Code)
		require.Equal(t, "SHOW CREATE TABLE app.x", re.Statement)
		require.True(t, IsCode(err, CodeUnknownTable))
	})

	t.Run("http body", func(t *testing.T) {
		err := classify(ctx, "SELECT 1", errors.New("clickhouse [execute]:: 404 code: Code: 81. DB::Exception: Database nope does not exist"))
		require.True(t, IsCode(err, CodeUnknownDatabase))
	})

	t.Run("deadline", func(t *testing.T) {
		err := classify(ctx, "DROP TABLE x", errors.Wrap(context.DeadlineExceeded, "read"))
		require.True(t, schema.IsTimeout(err))
	})

	t.Run("server timeout", func(t *testing.T) {
		err := classify(ctx, "SELECT sleep(3)", &clickhouse.Exception{Code: CodeTimeoutExceeded, Message: "Timeout exceeded"})
		require.True(t, schema.IsTimeout(err))
	})

	t.Run("truncates diagnostics", func(t *testing.T) {
		long := make([]byte, 2*consts.DiagnosticLimit)
		for i := range long {
			long[i] = 'x'
		}
		err := classify(ctx, "SELECT 1", errors.New(string(long)))
		re, ok := schema.AsRemote(err)
		require.True(t, ok)
		require.Len(t, re.Message, consts.DiagnosticLimit+3)
		require.Zero(t, re.Code)
	})
}

func TestWithDeadlineSettings(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, ctx, withDeadlineSettings(ctx))

	timed, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	require.NotEqual(t, timed, withDeadlineSettings(timed))
}

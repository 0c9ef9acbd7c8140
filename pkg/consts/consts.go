package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the config file looked up in the working directory
	DefaultConfigFile = "chsync.yaml"

	// ConfigEnvVar overrides the config file location
	ConfigEnvVar = "CHSYNC_CONFIG"

	// DefaultDatabase is used when a connection does not name a database
	DefaultDatabase = "default"

	// DefaultNativePort is the ClickHouse native protocol port
	DefaultNativePort = 9000

	// DefaultHTTPPort is the ClickHouse HTTP interface port
	DefaultHTTPPort = 8123

	// DefaultConcurrency bounds how many distinct targets a batch sync works on at once
	DefaultConcurrency = 4

	// DiagnosticLimit caps the remote response text carried by errors
	DiagnosticLimit = 500

	// LogSQLLimit caps statements echoed to the log
	LogSQLLimit = 500

	// MaxRequestBody caps the JSON bodies accepted by the HTTP API
	MaxRequestBody = 1 << 20
)

// Per-statement budgets. A stuck call only ends when its budget elapses.
const (
	ProbeTimeout  = 5 * time.Second
	FetchTimeout  = 30 * time.Second
	DropTimeout   = 60 * time.Second
	CreateTimeout = 120 * time.Second
	CopyTimeout   = 600 * time.Second
)

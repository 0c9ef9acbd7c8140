package clickhouse

import (
	"context"
	"crypto/tls"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/utils"
)

// Protocol selects the wire protocol used to reach the server.
type Protocol string

const (
	Native Protocol = "native"
	HTTP   Protocol = "http"
)

type (
	// Client wraps a ClickHouse connection. Every statement it runs is logged
	// (when ShowSQL is set) and its errors are classified into the schema
	// error kinds.
	Client struct {
		conn driver.Conn
		addr string
		opts ClientOptions
		log  *slog.Logger
	}

	// ClientOptions contains optional connection settings.
	ClientOptions struct {
		TLSSettings

		Protocol    Protocol
		Database    string
		Username    string
		Password    string
		Secure      bool
		DialTimeout time.Duration

		// ProbeTimeout bounds Ping (consts.ProbeTimeout by default)
		ProbeTimeout time.Duration

		// ShowSQL logs every statement at debug level.
		ShowSQL bool

		Logger *slog.Logger
	}

	// TLSSettings names the files used for TLS. Setting any of them turns TLS
	// on.
	TLSSettings struct {
		CertFile string
		KeyFile  string
		CAFile   string
	}
)

// NewClient connects to ClickHouse with default options.
// The DSN is either "host:port" or a full clickhouse://, tcp:// or http:// URL.
//
// Example:
//
//	client, err := clickhouse.NewClient(ctx, "localhost:9000")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(ctx context.Context, dsn string) (*Client, error) {
	return NewClientWithOptions(ctx, dsn, ClientOptions{})
}

// NewClientWithOptions connects to ClickHouse and probes the connection with
// the short probe budget before returning.
//
// Example:
//
//	client, err := clickhouse.NewClientWithOptions(ctx, "ch.internal:8123", clickhouse.ClientOptions{
//		Protocol: clickhouse.HTTP,
//		Username: "reader",
//		Password: os.Getenv("CH_PASSWORD"),
//		ShowSQL:  true,
//		Logger:   log,
//	})
func NewClientWithOptions(ctx context.Context, dsn string, opts ClientOptions) (*Client, error) {
	options, err := buildOptions(dsn, opts)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to ClickHouse")
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		conn: conn,
		addr: strings.Join(options.Addr, ","),
		opts: opts,
		log:  log,
	}

	if err := c.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to connect to ClickHouse")
	}

	log.Debug("ClickHouse client initialized", "addr", c.addr, "database", options.Auth.Database, "protocol", string(opts.Protocol))
	return c, nil
}

func buildOptions(dsn string, opts ClientOptions) (*clickhouse.Options, error) {
	var options *clickhouse.Options
	if strings.Contains(dsn, "://") {
		parsed, err := clickhouse.ParseDSN(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse DSN")
		}
		options = parsed
	} else {
		options = &clickhouse.Options{Addr: []string{dsn}}
	}

	if opts.Database != "" {
		options.Auth.Database = opts.Database
	}
	if opts.Username != "" {
		options.Auth.Username = opts.Username
	}
	if opts.Password != "" {
		options.Auth.Password = opts.Password
	}
	if opts.Protocol == HTTP {
		options.Protocol = clickhouse.HTTP
	}

	switch {
	case opts.TLSSettings.Enabled():
		cfg, err := opts.TLSSettings.Config()
		if err != nil {
			return nil, err
		}
		options.TLS = cfg
	case opts.Secure && options.TLS == nil:
		options.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	options.DialTimeout = opts.DialTimeout
	if options.DialTimeout == 0 {
		options.DialTimeout = consts.ProbeTimeout
	}

	return options, nil
}

// Addr returns the server address the client dialed.
func (c *Client) Addr() string {
	return c.addr
}

// Ping checks connectivity within the probe budget.
func (c *Client) Ping(ctx context.Context) error {
	budget := c.opts.ProbeTimeout
	if budget <= 0 {
		budget = consts.ProbeTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	return classify(ctx, "SELECT 1", c.conn.Ping(ctx))
}

// Query runs a statement that returns rows.
func (c *Client) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	c.logSQL(query)

	rows, err := c.conn.Query(withDeadlineSettings(ctx), query, args...)
	if err != nil {
		return nil, classify(ctx, query, err)
	}
	return rows, nil
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	c.logSQL(query)
	return classify(ctx, query, c.conn.Exec(withDeadlineSettings(ctx), query, args...))
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) logSQL(query string) {
	if !c.opts.ShowSQL {
		return
	}
	c.log.Debug("executing statement", "addr", c.addr, "sql", utils.Truncate(RedactSQL(query), consts.LogSQLLimit))
}

// withDeadlineSettings mirrors the context deadline into max_execution_time
// so the server abandons the statement when the client stops waiting.
func withDeadlineSettings(ctx context.Context) context.Context {
	deadline, ok := ctx.Deadline()
	if !ok {
		return ctx
	}

	secs := int(math.Ceil(time.Until(deadline).Seconds()))
	if secs < 1 {
		secs = 1
	}

	return clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"max_execution_time": secs,
	}))
}

// remoteCredentialsRe matches the password argument of remote()/remoteSecure().
var remoteCredentialsRe = regexp.MustCompile(`(?i)(remote(?:secure)?\s*\((?:\s*'(?:[^'\\]|\\.)*'\s*,){3}\s*)'(?:[^'\\]|\\.)*'`)

// RedactSQL hides the password argument of remote() table functions.
//
// Example:
//
//	RedactSQL("SELECT * FROM remote('h:9000', 'db.t', 'u', 'secret')")
//	// SELECT * FROM remote('h:9000', 'db.t', 'u', '***')
func RedactSQL(query string) string {
	return remoteCredentialsRe.ReplaceAllString(query, "$1'***'")
}

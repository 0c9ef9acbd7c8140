package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chsync/pkg/clickhouse"
	"github.com/pseudomuto/chsync/pkg/consts"
	"github.com/pseudomuto/chsync/pkg/market"
	"github.com/pseudomuto/chsync/pkg/schema"
	"gopkg.in/yaml.v3"
)

type (
	// Connection describes how to reach one ClickHouse server.
	Connection struct {
		// Host is either a bare hostname or a full clickhouse://, tcp:// or
		// http:// URL. When it is a URL, Port is ignored.
		Host string `yaml:"host"`

		// Port defaults to 9000 for the native protocol and 8123 for HTTP
		Port int `yaml:"port,omitempty"`

		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`
		Database string `yaml:"database,omitempty"`

		// Protocol is "native" (default) or "http"
		Protocol string `yaml:"protocol,omitempty"`

		Secure   bool   `yaml:"secure,omitempty"`
		CertFile string `yaml:"cert_file,omitempty"`
		KeyFile  string `yaml:"key_file,omitempty"`
		CAFile   string `yaml:"ca_file,omitempty"`

		DialTimeout time.Duration `yaml:"dial_timeout,omitempty"`

		// ShowSQL logs every statement sent over this connection
		ShowSQL bool `yaml:"show_sql,omitempty"`
	}

	// Remote holds the address and credentials the target server uses to read
	// from the source through the remote() table function.
	Remote struct {
		Address  string `yaml:"address"`
		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`
	}

	// Timeouts are the per-statement budgets.
	Timeouts struct {
		Probe  time.Duration `yaml:"probe,omitempty"`
		Fetch  time.Duration `yaml:"fetch,omitempty"`
		Drop   time.Duration `yaml:"drop,omitempty"`
		Create time.Duration `yaml:"create,omitempty"`
		Copy   time.Duration `yaml:"copy,omitempty"`
	}

	// TableJob is one configured migration. Source and Target may contain
	// market placeholders; Target defaults to Source.
	TableJob struct {
		Source        string `yaml:"source"`
		Target        string `yaml:"target,omitempty"`
		DropCluster   string `yaml:"drop_cluster,omitempty"`
		CreateCluster string `yaml:"create_cluster,omitempty"`
		CopyData      bool   `yaml:"copy_data,omitempty"`
	}

	// Config is the chsync configuration file.
	Config struct {
		Source Connection `yaml:"source"`
		Target Connection `yaml:"target"`
		Remote Remote     `yaml:"remote,omitempty"`

		Timeouts Timeouts `yaml:"timeouts,omitempty"`

		// Markets replace {market}, {region} and {country} in job table names
		Markets []string `yaml:"markets,omitempty"`

		// Concurrency bounds how many distinct targets sync works on at once
		Concurrency int `yaml:"concurrency,omitempty"`

		// ShowSQL turns on statement logging for both connections
		ShowSQL bool `yaml:"show_sql,omitempty"`

		Tables []TableJob `yaml:"tables,omitempty"`
	}
)

// LoadConfig parses a configuration from r. ${VAR} references are expanded
// from the environment before decoding, and unset fields receive defaults.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`
//	source:
//	  host: ch-prod.internal
//	  password: ${SOURCE_PASSWORD}
//	target:
//	  host: localhost
//	tables:
//	  - source: app.orders
//	    target: test.orders
//	`))
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	var cfg Config
	if err := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data))))).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadConfigFile loads the configuration at path. A .env file in the same
// directory is loaded first; variables already set in the environment win.
func LoadConfigFile(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", envFile)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// LoadIfExists loads and validates the configuration at path. A missing file
// is not an error: it yields a nil *Config.
func LoadIfExists(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Path returns the configuration file to use: $CHSYNC_CONFIG when set,
// otherwise chsync.yaml in the working directory.
func Path() string {
	if p := os.Getenv(consts.ConfigEnvVar); p != "" {
		return p
	}
	return consts.DefaultConfigFile
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = consts.DefaultConcurrency
	}

	t := &c.Timeouts
	setDuration(&t.Probe, consts.ProbeTimeout)
	setDuration(&t.Fetch, consts.FetchTimeout)
	setDuration(&t.Drop, consts.DropTimeout)
	setDuration(&t.Create, consts.CreateTimeout)
	setDuration(&t.Copy, consts.CopyTimeout)

	for i := range c.Tables {
		if c.Tables[i].Target == "" {
			c.Tables[i].Target = c.Tables[i].Source
		}
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

// Validate checks that every configured table name is database.table once
// market placeholders are filled in, and that protocols are known.
func (c *Config) Validate() error {
	for _, conn := range []struct {
		name string
		c    Connection
	}{{"source", c.Source}, {"target", c.Target}} {
		switch strings.ToLower(conn.c.Protocol) {
		case "", string(clickhouse.Native), string(clickhouse.HTTP):
		default:
			return errors.Errorf("%s: unknown protocol %q", conn.name, conn.c.Protocol)
		}
	}

	for i, job := range c.Tables {
		for _, name := range []string{job.Source, job.Target} {
			if market.HasPlaceholder(name) && len(c.Markets) == 0 {
				return errors.Errorf("tables[%d]: %s uses a market placeholder but no markets are configured", i, name)
			}

			if _, err := schema.ParseQualifiedName(market.Expand(name, []string{"m"})[0]); err != nil {
				return errors.Wrapf(err, "tables[%d]", i)
			}
		}
	}

	return nil
}

// Addr returns host:port for the connection. Hosts given as URLs are
// returned unchanged.
func (c Connection) Addr() string {
	if strings.Contains(c.Host, "://") {
		return c.Host
	}

	port := c.Port
	if port == 0 {
		port = consts.DefaultNativePort
		if strings.EqualFold(c.Protocol, string(clickhouse.HTTP)) {
			port = consts.DefaultHTTPPort
		}
	}

	host := c.Host
	if host == "" {
		host = "localhost"
	}
	return host + ":" + strconv.Itoa(port)
}

// ClientOptions converts the connection into client options.
func (c Connection) ClientOptions() clickhouse.ClientOptions {
	return clickhouse.ClientOptions{
		TLSSettings: clickhouse.TLSSettings{
			CertFile: c.CertFile,
			KeyFile:  c.KeyFile,
			CAFile:   c.CAFile,
		},
		Protocol:    clickhouse.Protocol(strings.ToLower(c.Protocol)),
		Database:    c.Database,
		Username:    c.User,
		Password:    c.Password,
		Secure:      c.Secure,
		DialTimeout: c.DialTimeout,
		ShowSQL:     c.ShowSQL,
	}
}

// Enabled reports whether remote() data copy is configured.
func (r Remote) Enabled() bool {
	return r.Address != ""
}

package clickhouse

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// Enabled reports whether any TLS file was configured.
func (t TLSSettings) Enabled() bool {
	return t.CertFile != "" || t.KeyFile != "" || t.CAFile != ""
}

// Config builds the TLS configuration for a connection. CAFile alone verifies
// the server against a private CA; CertFile and KeyFile together add a client
// certificate for mutual TLS.
//
// Example usage:
//
//	cfg, err := opts.TLSSettings.Config()
//	if err != nil {
//		return err
//	}
func (t TLSSettings) Config() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if t.CertFile != "" || t.KeyFile != "" {
		if t.CertFile == "" || t.KeyFile == "" {
			return nil, errors.New("tls cert_file and key_file must be set together")
		}

		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load client certificate")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", t.CAFile)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in %s", t.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

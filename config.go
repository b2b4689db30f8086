package solr

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// ErrNoServerURL is returned by LoadConfig when the url field is
// missing.
var ErrNoServerURL = errors.New("solr: config is missing the server url")

// Config holds client settings loadable from a YAML file:
//
//	url: http://localhost:8983/solr
//	username: writer
//	password: hunter2
//	timeout: 10s
//	max_retries: 2
//	rate_limit: 50
type Config struct {
	URL        string  `yaml:"url"`
	Username   string  `yaml:"username"`
	Password   string  `yaml:"password"`
	Timeout    string  `yaml:"timeout"`     // Go duration string
	MaxRetries *int    `yaml:"max_retries"` // nil means DefaultMaxRetries
	RateLimit  float64 `yaml:"rate_limit"`  // requests per second, 0 = unlimited

	// TLS settings for https servers.
	Insecure   bool   `yaml:"insecure"`
	CACertFile string `yaml:"ca_cert_file"`
}

// LoadConfig reads and validates a YAML client configuration.
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("solr: reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("solr: parsing config: %w", err)
	}
	if cfg.URL == "" {
		return nil, ErrNoServerURL
	}
	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			return nil, fmt.Errorf("solr: invalid timeout %q: %w", cfg.Timeout, err)
		}
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("solr: max_retries must be >= 0, got %d", *cfg.MaxRetries)
	}
	return &cfg, nil
}

// LoadConfigFile reads a YAML client configuration from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("solr: opening config %s: %w", path, err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// TLSConfig builds a TLS configuration from the config settings.
func (c *Config) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CACertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("solr: reading CA certificate %s: %w", c.CACertFile, err)
		}
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("solr: no CA certificates parsed from %s", c.CACertFile)
		}
		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

// NewClient builds a client from the configuration. Extra options are
// applied after the config-derived ones and take precedence.
func (c *Config) NewClient(opts ...Option) (*Client, error) {
	var fromConfig []Option

	if c.Username != "" {
		fromConfig = append(fromConfig, WithBasicAuth(c.Username, c.Password))
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("solr: invalid timeout %q: %w", c.Timeout, err)
		}
		fromConfig = append(fromConfig, WithTimeout(d))
	}
	if c.MaxRetries != nil {
		fromConfig = append(fromConfig, WithMaxRetries(*c.MaxRetries))
	}
	if c.RateLimit > 0 {
		fromConfig = append(fromConfig, WithRateLimit(c.RateLimit))
	}
	if c.Insecure || c.CACertFile != "" {
		tlsConfig, err := c.TLSConfig()
		if err != nil {
			return nil, err
		}
		fromConfig = append(fromConfig, WithTLSConfig(tlsConfig))
	}

	return New(c.URL, append(fromConfig, opts...)...)
}

package storage

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names a blob storage backend.
type Provider string

const (
	ProviderAzure  Provider = "azure"
	ProviderMinio  Provider = "minio"
	ProviderMemory Provider = "memory"
)

// Config holds blob storage connection parameters and the two logical areas
// (temporary and permanent) the service writes to.
type Config struct {
	Provider           Provider `toml:"provider"`
	ConnectionString   string   `toml:"connection_string"`
	AccountURL         string   `toml:"account_url"`
	Endpoint           string   `toml:"endpoint"`
	AccessKey          string   `toml:"access_key"`
	SecretKey          string   `toml:"secret_key"`
	UseSSL             bool     `toml:"use_ssl"`
	Region             string   `toml:"region"`
	TempContainer      string   `toml:"temp_container"`
	PermanentContainer string   `toml:"permanent_container"`
	SignURLs           bool     `toml:"sign_urls"`
	SignedURLExpiry    string   `toml:"signed_url_expiry"`
	TempTTL            string   `toml:"temp_ttl"`
	SweepInterval      string   `toml:"sweep_interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider           string
	ConnectionString   string
	AccountURL         string
	Endpoint           string
	AccessKey          string
	SecretKey          string
	UseSSL             string
	Region             string
	TempContainer      string
	PermanentContainer string
	SignURLs           string
	SignedURLExpiry    string
	TempTTL            string
	SweepInterval      string
}

// SignedURLExpiryDuration returns SignedURLExpiry as a time.Duration.
func (c *Config) SignedURLExpiryDuration() time.Duration {
	d, _ := time.ParseDuration(c.SignedURLExpiry)
	return d
}

// TempTTLDuration returns TempTTL as a time.Duration.
func (c *Config) TempTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TempTTL)
	return d
}

// SweepIntervalDuration returns SweepInterval as a time.Duration. Zero disables sweeping.
func (c *Config) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Boolean fields apply only
// when true.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	for dst, v := range map[*string]string{
		&c.ConnectionString:   overlay.ConnectionString,
		&c.AccountURL:         overlay.AccountURL,
		&c.Endpoint:           overlay.Endpoint,
		&c.AccessKey:          overlay.AccessKey,
		&c.SecretKey:          overlay.SecretKey,
		&c.Region:             overlay.Region,
		&c.TempContainer:      overlay.TempContainer,
		&c.PermanentContainer: overlay.PermanentContainer,
		&c.SignedURLExpiry:    overlay.SignedURLExpiry,
		&c.TempTTL:            overlay.TempTTL,
		&c.SweepInterval:      overlay.SweepInterval,
	} {
		if v != "" {
			*dst = v
		}
	}
	if overlay.UseSSL {
		c.UseSSL = true
	}
	if overlay.SignURLs {
		c.SignURLs = true
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAzure
	}
	if c.TempContainer == "" {
		c.TempContainer = "temp"
	}
	if c.PermanentContainer == "" {
		c.PermanentContainer = "plants"
	}
	if c.SignedURLExpiry == "" {
		c.SignedURLExpiry = "24h"
	}
	if c.TempTTL == "" {
		c.TempTTL = "1h"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "15m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := lookup(env.Provider); v != "" {
		c.Provider = Provider(v)
	}
	for dst, name := range map[*string]string{
		&c.ConnectionString:   env.ConnectionString,
		&c.AccountURL:         env.AccountURL,
		&c.Endpoint:           env.Endpoint,
		&c.AccessKey:          env.AccessKey,
		&c.SecretKey:          env.SecretKey,
		&c.Region:             env.Region,
		&c.TempContainer:      env.TempContainer,
		&c.PermanentContainer: env.PermanentContainer,
		&c.SignedURLExpiry:    env.SignedURLExpiry,
		&c.TempTTL:            env.TempTTL,
		&c.SweepInterval:      env.SweepInterval,
	} {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}
	if v := lookup(env.UseSSL); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseSSL = b
		}
	}
	if v := lookup(env.SignURLs); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SignURLs = b
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderAzure:
		if c.ConnectionString == "" && c.AccountURL == "" {
			return fmt.Errorf("connection_string or account_url required for azure provider")
		}
	case ProviderMinio:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint required for minio provider")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.TempContainer == c.PermanentContainer {
		return fmt.Errorf("temp_container and permanent_container must differ")
	}

	for name, v := range map[string]string{
		"signed_url_expiry": c.SignedURLExpiry,
		"temp_ttl":          c.TempTTL,
		"sweep_interval":    c.SweepInterval,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", name)
		}
	}

	if c.SignedURLExpiryDuration() == 0 {
		return fmt.Errorf("invalid signed_url_expiry: must be positive")
	}

	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

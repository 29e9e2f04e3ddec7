package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/herbarium/internal/classifier"
	"github.com/JaimeStill/herbarium/internal/validation"
	"github.com/JaimeStill/herbarium/pkg/database"
	"github.com/JaimeStill/herbarium/pkg/embedded"
	"github.com/JaimeStill/herbarium/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvHerbariumEnv             = "HERBARIUM_ENV"
	EnvHerbariumShutdownTimeout = "HERBARIUM_SHUTDOWN_TIMEOUT"
	EnvHerbariumVersion         = "HERBARIUM_VERSION"
	EnvHerbariumStore           = "HERBARIUM_STORE"
)

// Store selects the document store backend for plant records.
type Store string

const (
	StorePostgres Store = "postgres"
	StoreBadger   Store = "badger"
)

var databaseEnv = &database.Env{
	URL:             "HERBARIUM_DB_URL",
	Host:            "HERBARIUM_DB_HOST",
	Port:            "HERBARIUM_DB_PORT",
	Name:            "HERBARIUM_DB_NAME",
	User:            "HERBARIUM_DB_USER",
	Password:        "HERBARIUM_DB_PASSWORD",
	SSLMode:         "HERBARIUM_DB_SSL_MODE",
	MaxOpenConns:    "HERBARIUM_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "HERBARIUM_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "HERBARIUM_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "HERBARIUM_DB_CONN_TIMEOUT",
}

var embeddedEnv = &embedded.Env{
	Path:     "HERBARIUM_EMBEDDED_PATH",
	InMemory: "HERBARIUM_EMBEDDED_IN_MEMORY",
}

var storageEnv = &storage.Env{
	Provider:           "HERBARIUM_STORAGE_PROVIDER",
	ConnectionString:   "HERBARIUM_STORAGE_CONNECTION_STRING",
	AccountURL:         "HERBARIUM_STORAGE_ACCOUNT_URL",
	Endpoint:           "HERBARIUM_STORAGE_ENDPOINT",
	AccessKey:          "HERBARIUM_STORAGE_ACCESS_KEY",
	SecretKey:          "HERBARIUM_STORAGE_SECRET_KEY",
	UseSSL:             "HERBARIUM_STORAGE_USE_SSL",
	Region:             "HERBARIUM_STORAGE_REGION",
	TempContainer:      "HERBARIUM_STORAGE_TEMP_CONTAINER",
	PermanentContainer: "HERBARIUM_STORAGE_PERMANENT_CONTAINER",
	SignURLs:           "HERBARIUM_STORAGE_SIGN_URLS",
	SignedURLExpiry:    "HERBARIUM_STORAGE_SIGNED_URL_EXPIRY",
	TempTTL:            "HERBARIUM_STORAGE_TEMP_TTL",
	SweepInterval:      "HERBARIUM_STORAGE_SWEEP_INTERVAL",
}

var classifierEnv = &classifier.Env{
	Provider:      "HERBARIUM_CLASSIFIER_PROVIDER",
	Endpoint:      "HERBARIUM_CLASSIFIER_ENDPOINT",
	APIKey:        "HERBARIUM_CLASSIFIER_API_KEY",
	Model:         "HERBARIUM_CLASSIFIER_MODEL",
	Deployment:    "HERBARIUM_CLASSIFIER_DEPLOYMENT",
	APIVersion:    "HERBARIUM_CLASSIFIER_API_VERSION",
	Temperature:   "HERBARIUM_CLASSIFIER_TEMPERATURE",
	MaxTokens:     "HERBARIUM_CLASSIFIER_MAX_TOKENS",
	Detail:        "HERBARIUM_CLASSIFIER_DETAIL",
	Timeout:       "HERBARIUM_CLASSIFIER_TIMEOUT",
	MaxCandidates: "HERBARIUM_CLASSIFIER_MAX_CANDIDATES",
	RateLimit:     "HERBARIUM_CLASSIFIER_RATE_LIMIT",
	Burst:         "HERBARIUM_CLASSIFIER_BURST",
}

var validationEnv = &validation.Env{
	MaxFileSize:              "HERBARIUM_MAX_FILE_SIZE",
	NameMaxLength:            "HERBARIUM_PLANT_NAME_MAX_LENGTH",
	ScientificNameMaxLength:  "HERBARIUM_PLANT_SCIENTIFIC_NAME_MAX_LENGTH",
	FamilyNameMaxLength:      "HERBARIUM_PLANT_FAMILY_NAME_MAX_LENGTH",
	DescriptionMaxLength:     "HERBARIUM_PLANT_DESCRIPTION_MAX_LENGTH",
	CharacteristicsMaxLength: "HERBARIUM_PLANT_CHARACTERISTICS_MAX_LENGTH",
	ContextMaxLength:         "HERBARIUM_CONTEXT_MAX_LENGTH",
	AllowedContentTypes:      "HERBARIUM_ALLOWED_CONTENT_TYPES",
}

// Config is the root configuration for the Herbarium service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Logging         LoggingConfig     `toml:"logging"`
	Store           Store             `toml:"store"`
	Database        database.Config   `toml:"database"`
	Embedded        embedded.Config   `toml:"embedded"`
	Storage         storage.Config    `toml:"storage"`
	Classifier      classifier.Config `toml:"classifier"`
	Validation      validation.Config `toml:"validation"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the HERBARIUM_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvHerbariumEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase resolves only the database section, for tools that run
// without the rest of the service configured.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	return &cfg.Database, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Embedded.Merge(&overlay.Embedded)
	c.Storage.Merge(&overlay.Storage)
	c.Classifier.Merge(&overlay.Classifier)
	c.Validation.Merge(&overlay.Validation)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	switch c.Store {
	case StorePostgres:
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case StoreBadger:
		if err := c.Embedded.Finalize(embeddedEnv); err != nil {
			return fmt.Errorf("embedded: %w", err)
		}
	}

	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Classifier.Finalize(classifierEnv); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Validation.Finalize(validationEnv); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Store == "" {
		c.Store = StorePostgres
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvHerbariumShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvHerbariumVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvHerbariumStore); v != "" {
		c.Store = Store(v)
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	switch c.Store {
	case StorePostgres, StoreBadger:
	default:
		return fmt.Errorf("unknown store %q: must be %s or %s", c.Store, StorePostgres, StoreBadger)
	}
	return nil
}

func read() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvHerbariumEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

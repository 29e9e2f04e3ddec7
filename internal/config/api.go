package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/herbarium/pkg/middleware"
	"github.com/JaimeStill/herbarium/pkg/openapi"
)

const EnvAPIBasePath = "HERBARIUM_API_BASE_PATH"

var corsEnv = &middleware.CORSEnv{
	Enabled:          "HERBARIUM_CORS_ENABLED",
	Origins:          "HERBARIUM_CORS_ORIGINS",
	AllowedMethods:   "HERBARIUM_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "HERBARIUM_CORS_ALLOWED_HEADERS",
	AllowCredentials: "HERBARIUM_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "HERBARIUM_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	FunctionKey: "HERBARIUM_API_FUNCTION_KEY",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "HERBARIUM_OPENAPI_TITLE",
	Description: "HERBARIUM_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, function key, and OpenAPI settings.
type APIConfig struct {
	BasePath string                `toml:"base_path"`
	CORS     middleware.CORSConfig `toml:"cors"`
	Auth     middleware.AuthConfig `toml:"auth"`
	OpenAPI  openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 || len(c.BasePath) < 2 {
		return fmt.Errorf("base_path must be a single-level path such as /api: %q", c.BasePath)
	}
	return nil
}

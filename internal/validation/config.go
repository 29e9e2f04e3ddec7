package validation

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/herbarium/pkg/formatting"
)

// DefaultContentTypes is the image MIME allow-list.
var DefaultContentTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/gif",
}

// Config holds the field limits applied to plant records and uploads.
// Lengths are character counts.
type Config struct {
	MaxFileSize              string   `toml:"max_file_size"`
	NameMaxLength            int      `toml:"name_max_length"`
	ScientificNameMaxLength  int      `toml:"scientific_name_max_length"`
	FamilyNameMaxLength      int      `toml:"family_name_max_length"`
	DescriptionMaxLength     int      `toml:"description_max_length"`
	CharacteristicsMaxLength int      `toml:"characteristics_max_length"`
	ContextMaxLength         int      `toml:"context_max_length"`
	AllowedContentTypes      []string `toml:"allowed_content_types"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxFileSize              string
	NameMaxLength            string
	ScientificNameMaxLength  string
	FamilyNameMaxLength      string
	DescriptionMaxLength     string
	CharacteristicsMaxLength string
	ContextMaxLength         string
	AllowedContentTypes      string
}

// MaxFileSizeBytes returns MaxFileSize as a byte count. A bare number is bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	n, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
	for dst, v := range c.lengths(overlay) {
		if v > 0 {
			*dst = v
		}
	}
	if overlay.AllowedContentTypes != nil {
		c.AllowedContentTypes = overlay.AllowedContentTypes
	}
}

func (c *Config) lengths(src *Config) map[*int]int {
	return map[*int]int{
		&c.NameMaxLength:            src.NameMaxLength,
		&c.ScientificNameMaxLength:  src.ScientificNameMaxLength,
		&c.FamilyNameMaxLength:      src.FamilyNameMaxLength,
		&c.DescriptionMaxLength:     src.DescriptionMaxLength,
		&c.CharacteristicsMaxLength: src.CharacteristicsMaxLength,
		&c.ContextMaxLength:         src.ContextMaxLength,
	}
}

func (c *Config) loadDefaults() {
	if c.MaxFileSize == "" {
		c.MaxFileSize = "10MB"
	}
	defaults := &Config{
		NameMaxLength:            100,
		ScientificNameMaxLength:  150,
		FamilyNameMaxLength:      100,
		DescriptionMaxLength:     1000,
		CharacteristicsMaxLength: 500,
		ContextMaxLength:         1000,
	}
	for dst, v := range c.lengths(defaults) {
		if *dst <= 0 {
			*dst = v
		}
	}
	if len(c.AllowedContentTypes) == 0 {
		c.AllowedContentTypes = DefaultContentTypes
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxFileSize != "" {
		if v := os.Getenv(env.MaxFileSize); v != "" {
			c.MaxFileSize = v
		}
	}

	for dst, name := range map[*int]string{
		&c.NameMaxLength:            env.NameMaxLength,
		&c.ScientificNameMaxLength:  env.ScientificNameMaxLength,
		&c.FamilyNameMaxLength:      env.FamilyNameMaxLength,
		&c.DescriptionMaxLength:     env.DescriptionMaxLength,
		&c.CharacteristicsMaxLength: env.CharacteristicsMaxLength,
		&c.ContextMaxLength:         env.ContextMaxLength,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	if env.AllowedContentTypes != "" {
		if v := os.Getenv(env.AllowedContentTypes); v != "" {
			c.AllowedContentTypes = strings.Split(v, ",")
		}
	}
}

// normalizeContentTypes lowercases and trims the allow-list from any source,
// dropping blank entries. Requests are matched in lowercase.
func (c *Config) normalizeContentTypes() {
	types := make([]string, 0, len(c.AllowedContentTypes))
	for _, t := range c.AllowedContentTypes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	c.AllowedContentTypes = types
}

func (c *Config) validate() error {
	n, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("invalid max_file_size: must be positive")
	}
	c.normalizeContentTypes()
	if len(c.AllowedContentTypes) == 0 {
		return fmt.Errorf("allowed_content_types required")
	}
	for _, t := range c.AllowedContentTypes {
		if strings.ContainsAny(t, " ,") {
			return fmt.Errorf("invalid content type %q", t)
		}
	}
	return nil
}

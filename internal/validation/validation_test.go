package validation_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/JaimeStill/herbarium/internal/validation"
)

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	cfg := validation.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	return validation.New(&cfg)
}

func ptr[T any](v T) *T { return &v }

func TestDefaults(t *testing.T) {
	limits := newValidator(t).Limits()

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"max_file_size", limits.MaxFileSizeBytes(), int64(10485760)},
		{"name", limits.NameMaxLength, 100},
		{"scientific_name", limits.ScientificNameMaxLength, 150},
		{"family_name", limits.FamilyNameMaxLength, 100},
		{"description", limits.DescriptionMaxLength, 1000},
		{"characteristics", limits.CharacteristicsMaxLength, 500},
		{"content_types", len(limits.AllowedContentTypes), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEST_MAX_FILE_SIZE", "2097152")
	t.Setenv("TEST_NAME_MAX", "20")
	t.Setenv("TEST_TYPES", "image/png, IMAGE/GIF")

	cfg := validation.Config{}
	err := cfg.Finalize(&validation.Env{
		MaxFileSize:         "TEST_MAX_FILE_SIZE",
		NameMaxLength:       "TEST_NAME_MAX",
		AllowedContentTypes: "TEST_TYPES",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.MaxFileSizeBytes() != 2097152 {
		t.Errorf("max_file_size: got %d", cfg.MaxFileSizeBytes())
	}
	if cfg.NameMaxLength != 20 {
		t.Errorf("name_max_length: got %d", cfg.NameMaxLength)
	}
	if len(cfg.AllowedContentTypes) != 2 || cfg.AllowedContentTypes[1] != "image/gif" {
		t.Errorf("allowed_content_types: got %v", cfg.AllowedContentTypes)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := validation.Config{MaxFileSize: "lots"}
	if err := cfg.Finalize(nil); err == nil {
		t.Fatal("expected error for invalid max_file_size")
	}
}

func TestRequired(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		value   string
		max     int
		wantErr bool
	}{
		{"present", "Sakura", 100, false},
		{"empty", "", 100, true},
		{"blank", "   ", 100, true},
		{"at limit", strings.Repeat("a", 100), 100, false},
		{"over limit", strings.Repeat("a", 101), 100, true},
		{"multibyte at limit", strings.Repeat("桜", 100), 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Required("name", tt.value, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Required(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, validation.ErrInvalid) {
				t.Error("error should match ErrInvalid")
			}
		})
	}
}

func TestOptional(t *testing.T) {
	v := newValidator(t)

	if err := v.Optional("description", nil, 10); err != nil {
		t.Errorf("nil optional: %v", err)
	}
	if err := v.Optional("description", ptr(""), 10); err != nil {
		t.Errorf("empty optional: %v", err)
	}
	if err := v.Optional("description", ptr(strings.Repeat("x", 11)), 10); err == nil {
		t.Error("expected over-limit error")
	}
}

func TestConfidence(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		value   *float64
		wantErr bool
	}{
		{"missing", nil, true},
		{"zero", ptr(0.0), false},
		{"hundred", ptr(100.0), false},
		{"fraction", ptr(95.5), false},
		{"negative", ptr(-0.1), true},
		{"above", ptr(100.01), true},
		{"nan", ptr(math.NaN()), true},
		{"inf", ptr(math.Inf(1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Confidence("confidence", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Confidence error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestURL(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"https://x/sakura.jpg", false},
		{"https://acct.blob.core.windows.net/plants/a.jpg?sig=1", false},
		{"", true},
		{"not a url", true},
		{"/relative/path.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := v.URL("imagePath", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("URL(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"image/jpeg", false},
		{"IMAGE/PNG", false},
		{"image/webp; charset=binary", false},
		{"image/jpg", false},
		{"text/plain", true},
		{"image/svg+xml", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := v.ContentType(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ContentType(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestFileSize(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"empty", 0, true},
		{"small", 1024, false},
		{"at limit", 10 * 1024 * 1024, false},
		{"over limit", 10*1024*1024 + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.FileSize(tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("FileSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
		})
	}
}

func TestFileSizeMessage(t *testing.T) {
	v := newValidator(t)

	err := v.FileSize(12 * 1024 * 1024)
	if err == nil {
		t.Fatal("expected error for oversized file")
	}
	if !strings.Contains(err.Error(), "12.0 MB") || !strings.Contains(err.Error(), "10 MB") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestContentTypesNormalized(t *testing.T) {
	cfg := validation.Config{AllowedContentTypes: []string{" IMAGE/PNG ", "Image/JPEG", ""}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if len(cfg.AllowedContentTypes) != 2 || cfg.AllowedContentTypes[0] != "image/png" || cfg.AllowedContentTypes[1] != "image/jpeg" {
		t.Fatalf("allowed_content_types: got %q", cfg.AllowedContentTypes)
	}

	v := validation.New(&cfg)
	if err := v.ContentType("image/png"); err != nil {
		t.Errorf("image/png rejected: %v", err)
	}
	if err := v.ContentType("image/gif"); err == nil {
		t.Error("image/gif should not be allowed")
	}
}

func TestUUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"v4", "3f2b8c1e-9d4a-4b6f-8e2a-1c5d7f9a0b3e", false},
		{"v1", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"uppercase", "3F2B8C1E-9D4A-4B6F-8E2A-1C5D7F9A0B3E", false},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", true},
		{"version 7", "01890a5d-ac96-774b-bcce-b302099a8057", true},
		{"bad variant", "3f2b8c1e-9d4a-4b6f-ce2a-1c5d7f9a0b3e", true},
		{"urn form", "urn:uuid:3f2b8c1e-9d4a-4b6f-8e2a-1c5d7f9a0b3e", true},
		{"short", "3f2b8c1e", true},
		{"garbage", "not-a-uuid-at-all-not-a-uuid-at-all!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.UUID("id", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("UUID(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

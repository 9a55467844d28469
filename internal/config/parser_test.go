package config

import (
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		expected Format
	}{
		{"yaml extension", "config.yaml", "", FormatYAML},
		{"yml extension", "config.yml", "", FormatYAML},
		{"toml extension", "config.toml", "", FormatTOML},
		{"json extension", "config.json", "", FormatJSON},
		{"json content", "config", `{"provider": "github"}`, FormatJSON},
		{"yaml content", "config", `provider: github`, FormatYAML},
		{"toml content", "config", `provider = "github"`, FormatTOML},
		{"toml section first", "config", "# comment\n[app]\ncurrent_version = \"1.0.0\"", FormatTOML},
		{"unknown content", "config", `plain words`, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFormat(tt.path, []byte(tt.content))
			if got != tt.expected {
				t.Errorf("detectFormat() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_CDK", "abc123")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple var", "${TEST_CDK}", "abc123"},
		{"var with default", "${MISSING_VAR:-fallback}", "fallback"},
		{"existing var ignores default", "${TEST_CDK:-fallback}", "abc123"},
		{"empty var uses default", "${EMPTY_VAR:-fallback}", "fallback"},
		{"missing var without default", "${MISSING_VAR}", ""},
		{"no var", "plain text", "plain text"},
		{"mixed content", `cdk = "${TEST_CDK}"`, `cdk = "abc123"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(expandEnvVars([]byte(tt.input)))
			if got != tt.expected {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{"toml", FormatTOML, `
provider = "mirrorchyan"
cdk = "key"

[app]
current_version = "2.1.0"

[mirrorchyan]
channel = "beta"
`},
		{"yaml", FormatYAML, `
provider: mirrorchyan
cdk: key
app:
  current_version: 2.1.0
mirrorchyan:
  channel: beta
`},
		{"json", FormatJSON, `{
  "provider": "mirrorchyan",
  "cdk": "key",
  "app": {"current_version": "2.1.0"},
  "mirrorchyan": {"channel": "beta"}
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parse([]byte(tt.content), tt.format)
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			if cfg.Provider != "mirrorchyan" || cfg.CDK != "key" {
				t.Errorf("parse() provider/cdk = %s/%s", cfg.Provider, cfg.CDK)
			}
			if cfg.App.CurrentVersion != "2.1.0" {
				t.Errorf("parse() app.current_version = %s, want 2.1.0", cfg.App.CurrentVersion)
			}
			if cfg.MirrorChyan.Channel != "beta" {
				t.Errorf("parse() mirrorchyan.channel = %s, want beta", cfg.MirrorChyan.Channel)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := parse([]byte("provider = "), FormatTOML); err == nil {
		t.Error("expected TOML parse error")
	}
	if _, err := parse([]byte("{"), FormatJSON); err == nil {
		t.Error("expected JSON parse error")
	}
	if _, err := parse([]byte("x"), FormatUnknown); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{"toml", FormatTOML, "[app]\ninstal_path = \"/tmp/a.apk\"\n"},
		{"yaml", FormatYAML, "app:\n  instal_path: /tmp/a.apk\n"},
		{"json", FormatJSON, `{"app": {"instal_path": "/tmp/a.apk"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.content), tt.format)
			if err == nil {
				t.Fatal("parse() should reject unknown key")
			}
			if !strings.Contains(err.Error(), "instal_path") {
				t.Errorf("error %q does not name the key", err)
			}
		})
	}
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := parse([]byte("# nothing yet\n"), FormatYAML)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if cfg.Provider != "" {
		t.Errorf("provider = %q, want empty before defaults", cfg.Provider)
	}
}

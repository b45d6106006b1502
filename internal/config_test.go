package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/dayvault/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if !cfg.Convert.Dedup {
		t.Error("dedup should default to on")
	}
	if got := cfg.Convert.MaxUploadBytes(); got != 512<<20 {
		t.Errorf("max upload = %d, want %d", got, 512<<20)
	}
}

func TestConvertConfig_UploadLimitRequired(t *testing.T) {
	cfg := ConvertConfig{MaxUploadMB: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero upload limit should fail validation")
	}
}

func TestHistoryConfig_PathRequired(t *testing.T) {
	cfg := HistoryConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty history path should fail validation")
	}
}

func TestLoadOptional_FileOverridesDefaults(t *testing.T) {
	t.Setenv("DAYVAULT_TEST_DB", "/tmp/runs.db")
	file := filepath.Join(t.TempDir(), "config.yaml")
	data := "app:\n  http:\n    port: 9090\nconvert:\n  dedup: false\n  max_upload_mb: 64\nhistory:\n  path: ${DAYVAULT_TEST_DB}\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(file, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Convert.Dedup || cfg.Convert.MaxUploadMB != 64 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.History.Path != "/tmp/runs.db" {
		t.Errorf("history path = %q", cfg.History.Path)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("auth mode = %q, want default", cfg.Auth.Mode)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.History.Path != "./dayvault.db" {
		t.Errorf("history path = %q", cfg.History.Path)
	}
}

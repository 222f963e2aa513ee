package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "stackup"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "stackup" {
			t.Errorf("expected logging service name to follow name, got %q", cfg.Logging.ServiceName)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging in development, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "stackup", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info logging in production, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid", ServiceConfig{Name: "stackup", Environment: "staging"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name: is required"},
		{"invalid environment", ServiceConfig{Name: "stackup", Environment: "qa"}, true, "config.environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != "stackup" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if cfg.StackFile != DefaultStackFile {
		t.Errorf("expected stack file %q, got %q", DefaultStackFile, cfg.StackFile)
	}
	if cfg.Run.Timeout != DefaultRunTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultRunTimeout, cfg.Run.Timeout)
	}
	if cfg.Run.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected max attempts %d, got %d", DefaultMaxAttempts, cfg.Run.MaxAttempts)
	}
	if cfg.Run.BestEffort {
		t.Error("expected fail-fast by default")
	}
	if cfg.Observability.Endpoint != DefaultOTLPEndpoint {
		t.Errorf("expected endpoint %q, got %q", DefaultOTLPEndpoint, cfg.Observability.Endpoint)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestConfigValidateRun(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Run.MaxAttempts = -1
	cfg.Run.MaxParallel = -2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"run.max_attempts", "run.max_parallel"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "stackup.yml")

	yamlContent := `
name: stackup
environment: staging
stack_file: deploy/stack.yml
run:
  timeout: 90s
  best_effort: true
  max_attempts: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := LoadConfig("stackup", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.StackFile != "deploy/stack.yml" {
		t.Errorf("expected stack file, got %q", cfg.StackFile)
	}
	if cfg.Run.Timeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", cfg.Run.Timeout)
	}
	if !cfg.Run.BestEffort {
		t.Error("expected best_effort=true")
	}
	if cfg.Run.MaxAttempts != 5 {
		t.Errorf("expected max_attempts=5, got %d", cfg.Run.MaxAttempts)
	}
}

func TestLoadConfigEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "stackup.yml")
	if err := os.WriteFile(configPath, []byte("run:\n  max_attempts: 5\n  timeout: 1m\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("STACKUP_RUN_MAX_ATTEMPTS", "7")
	t.Setenv("STACKUP_RUN_RETRY_INTERVAL", "250ms")
	t.Setenv("RUN_TIMEOUT", "3s") // no prefix, ignored

	var cfg Config
	err := LoadConfig("stackup", &cfg,
		WithConfigFile(configPath),
		WithEnvPrefix("STACKUP"),
		WithOverride("run.best_effort", true),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Run.MaxAttempts != 7 {
		t.Errorf("expected env to win over file, got %d", cfg.Run.MaxAttempts)
	}
	if cfg.Run.RetryInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms retry interval, got %v", cfg.Run.RetryInterval)
	}
	if cfg.Run.Timeout != time.Minute {
		t.Errorf("expected unprefixed env to be ignored, got %v", cfg.Run.Timeout)
	}
	if !cfg.Run.BestEffort {
		t.Error("expected override to set best_effort")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg Config
	err := LoadConfig("stackup", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigBrokenFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "stackup.yml")
	if err := os.WriteFile(configPath, []byte("run: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := LoadConfig("stackup", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./config/stackup.yml": true,
		"./.env":               true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("stackup", LoaderConfig{})
	if files.ConfigFile != "./config/stackup.yml" {
		t.Errorf("expected ./config/stackup.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./stackup.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("stackup", LoaderConfig{ConfigFile: "custom.yml"})
	if files.ConfigFile != "custom.yml" {
		t.Errorf("expected explicit path, got %q", files.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("RUN_MAX_ATTEMPTS")
	want := map[string]bool{
		"run_max_attempts": true,
		"run.max.attempts": true,
		"run.max_attempts": true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d variants, got %v", len(want), got)
	}
	for _, v := range got {
		if !want[v] {
			t.Errorf("unexpected variant %q", v)
		}
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("stackup_")(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected paths %q %q", lc.ConfigFile, lc.EnvFile)
	}
	if lc.EnvPrefix != "STACKUP" {
		t.Errorf("expected normalized prefix STACKUP, got %q", lc.EnvPrefix)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	cc := cfg.Inference.ClientConfig()
	if cc.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cc.MaxAttempts)
	}
	if cc.RetryDelay != time.Second || cc.RequestTimeout != 45*time.Second || cc.WarmupTimeout != 10*time.Second {
		t.Errorf("Unexpected timings %+v", cc)
	}
	if cc.Primary.URL == cc.Fallback.URL {
		t.Error("Expected distinct primary and fallback endpoints")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Inference.Backend = "tensorflow" }},
		{"no primary", func(c *Config) { c.Inference.PrimaryURL = "" }},
		{"no ollama url", func(c *Config) { c.Inference.Backend = BackendOllama; c.Inference.OllamaURL = "" }},
		{"zero attempts", func(c *Config) { c.Inference.MaxAttempts = 0 }},
		{"negative delay", func(c *Config) { c.Inference.RetryDelayMillis = -1 }},
		{"zero timeout", func(c *Config) { c.Inference.RequestTimeoutSeconds = 0 }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"no upload dir", func(c *Config) { c.Server.UploadDir = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, test := range tests {
		cfg := Default()
		test.modify(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Pipeline.Workers = 4
	cfg.Inference.Backend = BackendOllama
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Pipeline.Workers != 4 || loaded.Inference.Backend != BackendOllama {
		t.Errorf("Round trip lost values: %+v", loaded)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server": {"port": 8080}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Inference.MaxAttempts != 3 {
		t.Errorf("Expected default attempts, got %d", cfg.Inference.MaxAttempts)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for malformed file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HF_API_TOKEN", "hf_secret")
	t.Setenv("PORT", "9090")
	t.Setenv("WORKERS", "not-a-number")
	t.Setenv("DETECTION_BACKEND", BackendOllama)
	t.Setenv("OLLAMA_MODEL", "llava")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Inference.APIToken != "hf_secret" {
		t.Errorf("Expected token from env, got %q", cfg.Inference.APIToken)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Errorf("Expected invalid WORKERS to be ignored, got %d", cfg.Pipeline.Workers)
	}

	cc := cfg.Inference.ClientConfig()
	if cc.Primary.Name != "llava" || cc.Fallback != cc.Primary {
		t.Errorf("Expected ollama endpoint for both roles, got %+v / %+v", cc.Primary, cc.Fallback)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ROOM_ADVISOR_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ROOM_ADVISOR_TEST_VALUE") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("ROOM_ADVISOR_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("Expected value from .env, got %q", got)
	}
}

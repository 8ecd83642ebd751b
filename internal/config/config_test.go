package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("SANDBOX_IMAGE")
	os.Unsetenv("SANDBOX_MAX_SESSIONS")
	os.Unsetenv("SANDBOX_HTTP_PORT")
	os.Unsetenv("SANDBOX_CPU_LIMIT")
	os.Unsetenv("SANDBOX_LOG_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Image != "llm-sandbox:latest" {
		t.Errorf("expected default image llm-sandbox:latest, got %s", cfg.Image)
	}
	if cfg.MaxSessions != 10 {
		t.Errorf("expected default max sessions 10, got %d", cfg.MaxSessions)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.CPUs != 1.0 {
		t.Errorf("expected default cpu limit 1.0, got %v", cfg.CPUs)
	}
	if cfg.ExecTimeoutS != 60 {
		t.Errorf("expected default exec timeout 60s, got %d", cfg.ExecTimeoutS)
	}
	if cfg.LogFile != "" {
		t.Errorf("expected default log file empty (stdout), got %q", cfg.LogFile)
	}
}

func TestLoadLogFileFromEnv(t *testing.T) {
	os.Setenv("SANDBOX_LOG_FILE", "/var/log/broker.log")
	defer os.Unsetenv("SANDBOX_LOG_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.LogFile != "/var/log/broker.log" {
		t.Errorf("expected log file /var/log/broker.log, got %q", cfg.LogFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("SANDBOX_IMAGE", "custom-sandbox:v2")
	os.Setenv("SANDBOX_MAX_SESSIONS", "25")
	os.Setenv("SANDBOX_CPU_LIMIT", "2.5")
	defer func() {
		os.Unsetenv("SANDBOX_IMAGE")
		os.Unsetenv("SANDBOX_MAX_SESSIONS")
		os.Unsetenv("SANDBOX_CPU_LIMIT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Image != "custom-sandbox:v2" {
		t.Errorf("expected image custom-sandbox:v2, got %s", cfg.Image)
	}
	if cfg.MaxSessions != 25 {
		t.Errorf("expected max sessions 25, got %d", cfg.MaxSessions)
	}
	if cfg.CPUs != 2.5 {
		t.Errorf("expected cpu limit 2.5, got %v", cfg.CPUs)
	}
}

func TestLoadInvalidCPULimit(t *testing.T) {
	os.Setenv("SANDBOX_CPU_LIMIT", "not-a-number")
	defer os.Unsetenv("SANDBOX_CPU_LIMIT")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid cpu limit, got nil")
	}
}

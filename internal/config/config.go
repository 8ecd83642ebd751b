// Package config loads the broker's tunables from the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the sandbox broker.
type Config struct {
	// Container
	Image     string  // sandbox image to run user code in
	MemoryMB  int     // per-container memory limit
	CPUs      float64 // per-container CPU limit
	TmpDirMB  int     // read from SANDBOX_TMP_DIR_MB; not passed on, containers get engine.DefaultConfig's 64 MB /tmp tmpfs

	// Execution
	Interpreter  string // interpreter invoked for each Execute call, e.g. "python3"
	ExecTimeoutS int    // wall-clock timeout per execute, in seconds

	// Session lifecycle
	MaxSessions       int // live sessions the broker will hold at once
	SessionTTLM       int // minutes of inactivity before a session is closed
	CleanupIntervalM  int // minutes between TTL sweeps

	// Size limits
	MaxUploadBytes       int // max decoded byte size accepted by Upload
	MaxArtifactReadBytes int // max raw byte size Read will return
	MaxOutputBytes       int // max bytes of stdout/stderr returned per run
	MaxCodeBytes         int // max bytes of code accepted by Execute

	// HTTP artifact surface
	HTTPHost string
	HTTPPort int

	// Observability
	LogLevel  string
	LogFormat string // "console" or "json"
	LogFile   string // if empty, logs to stdout
}

// Load reads configuration from SANDBOX_-prefixed environment variables,
// falling back to the same defaults as the predecessor's settings module.
func Load() (*Config, error) {
	cfg := &Config{
		Image:    envOrDefault("SANDBOX_IMAGE", "llm-sandbox:latest"),
		MemoryMB: envOrDefaultInt("SANDBOX_MEMORY_LIMIT_MB", 512),
		TmpDirMB: envOrDefaultInt("SANDBOX_TMP_DIR_MB", 64),

		Interpreter:  envOrDefault("SANDBOX_INTERPRETER", "python3"),
		ExecTimeoutS: envOrDefaultInt("SANDBOX_EXEC_TIMEOUT_S", 60),

		MaxSessions:      envOrDefaultInt("SANDBOX_MAX_SESSIONS", 10),
		SessionTTLM:      envOrDefaultInt("SANDBOX_SESSION_TTL_M", 30),
		CleanupIntervalM: envOrDefaultInt("SANDBOX_CLEANUP_INTERVAL_M", 5),

		MaxUploadBytes:       envOrDefaultInt("SANDBOX_MAX_UPLOAD_BYTES", 50*1024*1024),
		MaxArtifactReadBytes: envOrDefaultInt("SANDBOX_MAX_ARTIFACT_READ_BYTES", 10*1024*1024),
		MaxOutputBytes:       envOrDefaultInt("SANDBOX_MAX_OUTPUT_BYTES", 100*1024),
		MaxCodeBytes:         envOrDefaultInt("SANDBOX_MAX_CODE_BYTES", 100*1024),

		HTTPHost: envOrDefault("SANDBOX_HTTP_HOST", "127.0.0.1"),
		HTTPPort: envOrDefaultInt("SANDBOX_HTTP_PORT", 8080),

		LogLevel:  envOrDefault("SANDBOX_LOG_LEVEL", "info"),
		LogFormat: envOrDefault("SANDBOX_LOG_FORMAT", "console"),
		LogFile:   os.Getenv("SANDBOX_LOG_FILE"),
	}

	cpuStr := envOrDefault("SANDBOX_CPU_LIMIT", "1.0")
	cpus, err := strconv.ParseFloat(cpuStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SANDBOX_CPU_LIMIT %q: %w", cpuStr, err)
	}
	cfg.CPUs = cpus

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

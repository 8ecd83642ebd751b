package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/opensandbox/codebroker/internal/config"
)

// logOutput opens cfg.LogFile for appending if set, otherwise returns
// stdout. The returned closer is a no-op for stdout.
func logOutput(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.LogFile == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
	}
	return f, func() { f.Close() }, nil
}

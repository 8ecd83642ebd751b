package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensandbox/codebroker/internal/config"
	"github.com/opensandbox/codebroker/internal/engine"
	"github.com/opensandbox/codebroker/internal/httpapi"
	"github.com/opensandbox/codebroker/internal/obslog"
	"github.com/opensandbox/codebroker/internal/reaper"
	"github.com/opensandbox/codebroker/internal/session"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the broker: orphan sweep, TTL reaper, and the artifact HTTP surface",
	RunE:  runServe,
}

func runServe(c *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	output, closeOutput, err := logOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	obslog.Init(obslog.Config{
		Level:  obslog.ParseLevel(cfg.LogLevel),
		Format: obslog.ParseFormat(cfg.LogFormat),
		Output: output,
	})
	log := obslog.WithComponent("broker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("connect to container engine: %w", err)
	}
	defer eng.Close()

	if n, err := reaper.SweepOrphans(ctx, eng); err != nil {
		log.Warn().Err(err).Msg("orphan_sweep_failed")
	} else if n > 0 {
		log.Warn().Int("count", n).Msg("orphans_removed_at_boot")
	}

	manager := session.NewManager(eng, session.Config{
		Image:                cfg.Image,
		Interpreter:          cfg.Interpreter,
		MemoryMB:             cfg.MemoryMB,
		CPUs:                 cfg.CPUs,
		ExecTimeoutS:         cfg.ExecTimeoutS,
		MaxSessions:          cfg.MaxSessions,
		MaxUploadBytes:       cfg.MaxUploadBytes,
		MaxArtifactReadBytes: cfg.MaxArtifactReadBytes,
		MaxOutputBytes:       cfg.MaxOutputBytes,
		MaxCodeBytes:         cfg.MaxCodeBytes,
		DownloadURLFmt:       fmt.Sprintf("http://%s:%d/files/%%s/%%s", cfg.HTTPHost, cfg.HTTPPort),
	})

	ttl := reaper.NewTTL(manager,
		time.Duration(cfg.SessionTTLM)*time.Minute,
		time.Duration(cfg.CleanupIntervalM)*time.Minute,
	)
	go ttl.Run(ctx)

	server := httpapi.New(manager)
	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Error().Err(err).Msg("http_server_stopped")
		}
	}()

	log.Info().Str("addr", addr).Int("max_sessions", cfg.MaxSessions).Msg("broker_started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("broker_shutting_down")
	cancel()
	return nil
}

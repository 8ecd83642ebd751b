package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensandbox/codebroker/internal/config"
	"github.com/opensandbox/codebroker/internal/engine"
	"github.com/opensandbox/codebroker/internal/obslog"
	"github.com/opensandbox/codebroker/internal/reaper"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove every orphaned sandbox container and exit",
	Long: `sweep force-removes any container labeled app=mcp-code-sandbox
without starting the broker's session manager or HTTP surface. Useful
after an unclean shutdown, or as a standalone operational cron job.`,
	RunE: runSweep,
}

func runSweep(c *cobra.Command, args []string) error {
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

	ctx := context.Background()
	eng, err := engine.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("connect to container engine: %w", err)
	}
	defer eng.Close()

	n, err := reaper.SweepOrphans(ctx, eng)
	if err != nil {
		return fmt.Errorf("sweep orphans: %w", err)
	}

	fmt.Printf("removed %d orphaned container(s)\n", n)
	return nil
}

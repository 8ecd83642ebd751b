package engine

import (
	"bytes"
	"context"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/opensandbox/codebroker/internal/metrics"
)

// ExecResult is the outcome of running a command inside a container.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Exec runs argv inside the container identified by h, with the given
// working directory, and returns its demultiplexed stdout/stderr and exit
// code. The caller is responsible for wrapping argv in a timeout utility
// if a wall-clock bound is required — this driver does not interpret argv.
func (c *Client) Exec(ctx context.Context, h Handle, argv []string, workdir string) (ExecResult, error) {
	defer metrics.ObserveEngineOp("exec")()

	execConfig := containertypes.ExecOptions{
		Cmd:          argv,
		WorkingDir:   workdir,
		AttachStdout: true,
		AttachStderr: true,
	}

	created, err := c.docker.ContainerExecCreate(ctx, string(h), execConfig)
	if err != nil {
		return ExecResult{}, classify("exec_create", err)
	}

	resp, err := c.docker.ContainerExecAttach(ctx, created.ID, containertypes.ExecStartOptions{})
	if err != nil {
		return ExecResult{}, classify("exec_attach", err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, resp.Reader); err != nil {
		return ExecResult{}, classify("exec_stream", err)
	}

	inspect, err := c.docker.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return ExecResult{}, classify("exec_inspect", err)
	}

	return ExecResult{
		ExitCode: inspect.ExitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

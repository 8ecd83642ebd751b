// Package engine is the Container Driver: a thin wrapper over the Docker
// Engine API that creates hardened sandbox containers, execs commands in
// them with demultiplexed output, and moves TAR archives in and out.
//
// Grounded on the session-scoped Docker provider pattern used in the
// broader sandbox-provider corpus (NewClientWithOpts + FromEnv +
// API version negotiation, ContainerExecAttach + stdcopy for exec,
// CopyToContainer/CopyFromContainer for archives).
package engine

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

const (
	// AppLabel marks every container this driver creates, so the reaper's
	// orphan sweep can find leftovers from a previous broker process.
	AppLabel = "app"
	// AppLabelValue is the value AppLabel carries.
	AppLabelValue = "mcp-code-sandbox"
	// SessionLabel carries the owning session id.
	SessionLabel = "session_id"
)

// Handle identifies a container by its engine-assigned ID.
type Handle string

// Client is the Container Driver's concrete implementation over the Docker
// Engine API.
type Client struct {
	docker *client.Client
}

// NewClient connects to the local Docker engine using the standard
// environment-derived configuration (DOCKER_HOST, DOCKER_TLS_VERIFY, …),
// negotiating the API version against the daemon.
func NewClient(ctx context.Context) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("engine: connect: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		return nil, classify("ping", err)
	}
	return &Client{docker: cli}, nil
}

// Close releases the underlying Docker client's resources.
func (c *Client) Close() error {
	return c.docker.Close()
}

// Config describes a sandbox container to create. Security hardening
// (dropped capabilities, no-new-privileges, disabled network, read-only
// rootfs) is always applied by Create and is not configurable — it is not
// a per-sandbox knob, it is the contract.
type Config struct {
	Name     string
	Image    string
	Labels   map[string]string
	MemoryMB int
	CPUs     float64
	Env      map[string]string
	TmpDirMB int // size cap for the /tmp tmpfs, in MB
}

// DefaultConfig returns a Config with the sandbox image and hardening
// labels pre-filled; callers set MemoryMB/CPUs/Env before calling Create.
func DefaultConfig(name, image string) Config {
	return Config{
		Name:     name,
		Image:    image,
		Labels:   map[string]string{AppLabel: AppLabelValue},
		MemoryMB: 512,
		CPUs:     1,
		Env:      map[string]string{},
		TmpDirMB: 64,
	}
}

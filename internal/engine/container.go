package engine

import (
	"context"
	"fmt"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/opensandbox/codebroker/internal/metrics"
)

// Create builds (but does not start; see Start) a sandbox container: network disabled, all
// capabilities dropped, no-new-privileges, read-only rootfs with a
// writable anonymous volume at /mnt/data and a size-capped tmpfs at /tmp.
// The command is a long-lived no-op sleeper; actual code runs via Exec.
func (c *Client) Create(ctx context.Context, cfg Config) (Handle, error) {
	defer metrics.ObserveEngineOp("create")()

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	containerConfig := &containertypes.Config{
		Image:      cfg.Image,
		Cmd:        []string{"sleep", "infinity"},
		Env:        env,
		Labels:     cfg.Labels,
		Tty:        false,
		Volumes:    map[string]struct{}{"/mnt/data": {}},
		WorkingDir: "/mnt/data",
	}

	hostConfig := &containertypes.HostConfig{
		ReadonlyRootfs: true,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		NetworkMode:    "none",
		Tmpfs: map[string]string{
			"/tmp": fmt.Sprintf("rw,size=%dm", cfg.TmpDirMB),
		},
		Resources: containertypes.Resources{
			Memory:   int64(cfg.MemoryMB) * 1024 * 1024,
			NanoCPUs: int64(cfg.CPUs * 1e9),
		},
	}

	resp, err := c.docker.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, cfg.Name)
	if err != nil {
		return "", classify("create", err)
	}
	return Handle(resp.ID), nil
}

// Start starts a created container.
func (c *Client) Start(ctx context.Context, h Handle) error {
	defer metrics.ObserveEngineOp("start")()

	if err := c.docker.ContainerStart(ctx, string(h), containertypes.StartOptions{}); err != nil {
		return classify("start", err)
	}
	return nil
}

// Remove force-removes a container along with its anonymous volumes.
func (c *Client) Remove(ctx context.Context, h Handle) error {
	defer metrics.ObserveEngineOp("remove")()

	err := c.docker.ContainerRemove(ctx, string(h), containertypes.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		return classify("remove", err)
	}
	return nil
}

// ListByLabel returns the handles of all containers (running or not)
// carrying the given label key=value.
func (c *Client) ListByLabel(ctx context.Context, key, value string) ([]Handle, error) {
	defer metrics.ObserveEngineOp("list")()

	args := filters.NewArgs(filters.Arg("label", key+"="+value))
	containers, err := c.docker.ContainerList(ctx, containertypes.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, classify("list", err)
	}
	handles := make([]Handle, 0, len(containers))
	for _, ct := range containers {
		handles = append(handles, Handle(ct.ID))
	}
	return handles, nil
}

// Inspect reports whether the container is currently running.
func (c *Client) Inspect(ctx context.Context, h Handle) (running bool, err error) {
	defer metrics.ObserveEngineOp("inspect")()

	info, err := c.docker.ContainerInspect(ctx, string(h))
	if err != nil {
		return false, classify("inspect", err)
	}
	return info.State != nil && info.State.Running, nil
}

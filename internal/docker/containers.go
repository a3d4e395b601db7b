package docker

import (
	"context"
	"io"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"
)

// CreateContainer creates a new container joined to the given network and
// returns its daemon-assigned ID.
func (c *Client) CreateContainer(ctx context.Context, name string, cfg *container.Config, hostCfg *container.HostConfig, netCfg *network.NetworkingConfig) (string, error) {
	resp, err := c.api.ContainerCreate(ctx, client.ContainerCreateOptions{
		Name:             name,
		Config:           cfg,
		HostConfig:       hostCfg,
		NetworkingConfig: netCfg,
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// StartContainer starts a created or stopped container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	_, err := c.api.ContainerStart(ctx, id, client.ContainerStartOptions{})
	return err
}

// StopContainer stops a running container, giving it the daemon's default
// grace period before killing it.
func (c *Client) StopContainer(ctx context.Context, id string) error {
	_, err := c.api.ContainerStop(ctx, id, client.ContainerStopOptions{})
	return err
}

// RemoveContainer force-removes a container. When withVolumes is true, the
// daemon also removes anonymous volumes bound only to this container.
func (c *Client) RemoveContainer(ctx context.Context, id string, withVolumes bool) error {
	_, err := c.api.ContainerRemove(ctx, id, client.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: withVolumes,
	})
	return err
}

// InspectContainer returns full container details by ID.
func (c *Client) InspectContainer(ctx context.Context, id string) (container.InspectResponse, error) {
	result, err := c.api.ContainerInspect(ctx, id, client.ContainerInspectOptions{})
	if err != nil {
		return container.InspectResponse{}, err
	}
	return result.Container, nil
}

// ContainerLogs streams a container's logs. The caller must close the
// returned reader.
func (c *Client) ContainerLogs(ctx context.Context, id string, stdout, stderr bool) (io.ReadCloser, error) {
	return c.api.ContainerLogs(ctx, id, client.ContainerLogsOptions{
		ShowStdout: stdout,
		ShowStderr: stderr,
	})
}

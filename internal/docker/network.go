package docker

import (
	"context"

	"github.com/moby/moby/client"
)

// CreateNetwork creates a user-defined bridge network and returns its ID.
func (c *Client) CreateNetwork(ctx context.Context, name string) (string, error) {
	resp, err := c.api.NetworkCreate(ctx, client.NetworkCreateOptions{
		Name:   name,
		Driver: "bridge",
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ConnectNetwork attaches a container to a network.
func (c *Client) ConnectNetwork(ctx context.Context, networkID, containerID string) error {
	_, err := c.api.NetworkConnect(ctx, networkID, client.NetworkConnectOptions{
		Container: containerID,
	})
	return err
}

// DisconnectNetwork detaches a container from a network. force continues
// past containers that have already died or been removed out-of-band.
func (c *Client) DisconnectNetwork(ctx context.Context, networkID, containerID string, force bool) error {
	_, err := c.api.NetworkDisconnect(ctx, networkID, client.NetworkDisconnectOptions{
		Container: containerID,
		Force:     force,
	})
	return err
}

// RemoveNetwork deletes a network by ID.
func (c *Client) RemoveNetwork(ctx context.Context, networkID string) error {
	_, err := c.api.NetworkRemove(ctx, networkID, client.NetworkRemoveOptions{})
	return err
}

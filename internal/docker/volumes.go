package docker

import (
	"context"

	"github.com/moby/moby/client"
)

// CreateVolume creates a named volume. Creating a volume that already
// exists with the same driver/options is a no-op at the daemon level.
func (c *Client) CreateVolume(ctx context.Context, name string) error {
	_, err := c.api.VolumeCreate(ctx, client.VolumeCreateOptions{Name: name})
	return err
}

// RemoveVolume deletes a named volume. force ignores "volume in use"
// conditions encountered during best-effort teardown.
func (c *Client) RemoveVolume(ctx context.Context, name string, force bool) error {
	_, err := c.api.VolumeRemove(ctx, name, client.VolumeRemoveOptions{Force: force})
	return err
}

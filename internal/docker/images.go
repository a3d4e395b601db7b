package docker

import (
	"context"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"
)

// PullImage pulls an image by reference and waits for the pull to complete.
func (c *Client) PullImage(ctx context.Context, refStr string) error {
	resp, err := c.api.ImagePull(ctx, refStr, client.ImagePullOptions{})
	if err != nil {
		return err
	}
	return resp.Wait(ctx)
}

// ImageExists reports whether refStr is already present on the local
// daemon, for PullIfNotPresent to skip a network round-trip.
func (c *Client) ImageExists(ctx context.Context, refStr string) (bool, error) {
	_, err := c.api.ImageInspect(ctx, refStr)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Package docker wraps the subset of the Docker Engine API that the
// lifecycle engine needs to create, start, inspect, and tear down
// containers, networks, and volumes.
package docker

import (
	"context"

	"github.com/moby/moby/client"
)

// Client wraps the Docker API client used by the lifecycle engine.
type Client struct {
	api *client.Client
}

// NewClient connects to the local Docker daemon using the standard
// DOCKER_HOST/DOCKER_CERT_PATH/DOCKER_TLS_VERIFY environment conventions.
func NewClient() (*Client, error) {
	api, err := client.New(client.FromEnv)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

// Ping checks that the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.Ping(ctx, client.PingOptions{})
	return err
}

// Close releases the Docker client resources.
func (c *Client) Close() error {
	return c.api.Close()
}

package docker

import (
	"context"
	"io"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
)

// API defines the subset of Docker operations used by the lifecycle engine.
// Implemented by Client for production, and by fakes in tests.
type API interface {
	// Images
	PullImage(ctx context.Context, refStr string) error
	ImageExists(ctx context.Context, refStr string) (bool, error)

	// Containers
	CreateContainer(ctx context.Context, name string, cfg *container.Config, hostCfg *container.HostConfig, netCfg *network.NetworkingConfig) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string, withVolumes bool) error
	InspectContainer(ctx context.Context, id string) (container.InspectResponse, error)
	ContainerLogs(ctx context.Context, id string, stdout, stderr bool) (io.ReadCloser, error)

	// Networks
	CreateNetwork(ctx context.Context, name string) (string, error)
	ConnectNetwork(ctx context.Context, networkID, containerID string) error
	DisconnectNetwork(ctx context.Context, networkID, containerID string, force bool) error
	RemoveNetwork(ctx context.Context, networkID string) error

	// Volumes
	CreateVolume(ctx context.Context, name string) error
	RemoveVolume(ctx context.Context, name string, force bool) error

	Close() error
}

// Verify Client implements API at compile time.
var _ API = (*Client)(nil)

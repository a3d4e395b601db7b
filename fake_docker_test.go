package dockertest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/docker/go-connections/nat"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
)

// fakeDocker is a hand-rolled stand-in for docker.API, in the teacher's
// plain-mock style (no mocking library). It records calls so tests can
// assert on ordering and lets individual operations be scripted to fail.
type fakeDocker struct {
	mu sync.Mutex

	createCount   int
	created       []string // container names, in create order
	started       []string
	stopped       []string
	removed       []string
	removedVols   bool
	networks      []string
	removedNets   []string
	volumesMade   []string
	volumesRemoved []string
	connected     []string
	disconnected  []string

	failCreate       map[string]bool // containerName -> fail
	failCreateSubstr string          // any created name containing this substring fails
	failStart        map[string]bool
	failPull         map[string]bool
	localImages      map[string]bool // ref -> already present locally

	pulled []string // refs actually pulled, for PullIfNotPresent assertions

	logLines map[string]string // containerID -> canned log text

	inspectPorts nat.PortMap // overrides the canned port map InspectContainer returns
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{
		failCreate:  make(map[string]bool),
		failStart:   make(map[string]bool),
		failPull:    make(map[string]bool),
		localImages: make(map[string]bool),
		logLines:    make(map[string]string),
	}
}

func (f *fakeDocker) PullImage(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPull[ref] {
		return fmt.Errorf("fake: pull %q failed", ref)
	}
	f.pulled = append(f.pulled, ref)
	f.localImages[ref] = true
	return nil
}

func (f *fakeDocker) ImageExists(_ context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.localImages[ref], nil
}

func (f *fakeDocker) CreateContainer(_ context.Context, name string, _ *container.Config, _ *container.HostConfig, _ *network.NetworkingConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCount++
	if f.failCreate[name] || (f.failCreateSubstr != "" && strings.Contains(name, f.failCreateSubstr)) {
		return "", fmt.Errorf("fake: create %q failed", name)
	}
	id := fmt.Sprintf("id-%d", f.createCount)
	f.created = append(f.created, name)
	return id, nil
}

func (f *fakeDocker) StartContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStart[id] {
		return fmt.Errorf("fake: start %q failed", id)
	}
	f.started = append(f.started, id)
	return nil
}

func (f *fakeDocker) StopContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeDocker) RemoveContainer(_ context.Context, id string, withVolumes bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	if withVolumes {
		f.removedVols = true
	}
	return nil
}

func (f *fakeDocker) InspectContainer(_ context.Context, id string) (container.InspectResponse, error) {
	return container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			ID:   id,
			Name: "/" + id,
		},
		NetworkSettings: &container.NetworkSettings{Ports: f.inspectPorts},
	}, nil
}

func (f *fakeDocker) ContainerLogs(_ context.Context, id string, _, _ bool) (io.ReadCloser, error) {
	f.mu.Lock()
	text := f.logLines[id]
	f.mu.Unlock()
	return io.NopCloser(strings.NewReader(text)), nil
}

func (f *fakeDocker) CreateNetwork(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networks = append(f.networks, name)
	return "net-" + name, nil
}

func (f *fakeDocker) ConnectNetwork(_ context.Context, _ string, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, containerID)
	return nil
}

func (f *fakeDocker) DisconnectNetwork(_ context.Context, _ string, containerID string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, containerID)
	return nil
}

func (f *fakeDocker) RemoveNetwork(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedNets = append(f.removedNets, id)
	return nil
}

func (f *fakeDocker) CreateVolume(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumesMade = append(f.volumesMade, name)
	return nil
}

func (f *fakeDocker) RemoveVolume(_ context.Context, name string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumesRemoved = append(f.volumesRemoved, name)
	return nil
}

func (f *fakeDocker) Close() error { return nil }

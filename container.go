package dockertest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/hullbase/dockertest/internal/docker"
)

// transitionalKind tags which variant of Transitional a slot currently
// holds. Go has no native tagged union, so Transitional carries this
// discriminant alongside one populated field per kind.
type transitionalKind int

const (
	kindPending transitionalKind = iota
	kindRunning
	kindCreationFailure
	kindStaticExternal
	kindSentinel
)

// Transitional is the phase-internal representation of a single
// container slot as it moves through Igniting and Orbiting. Exactly one
// of the fields matching Kind is populated.
type Transitional struct {
	Kind    transitionalKind
	Pending *PendingContainer
	Running *RunningContainer
	Failure error
	Static  *ExternalRef
}

func pendingSlot(p *PendingContainer) Transitional {
	return Transitional{Kind: kindPending, Pending: p}
}

func runningSlot(r *RunningContainer) Transitional {
	return Transitional{Kind: kindRunning, Running: r}
}

func failureSlot(err error) Transitional {
	return Transitional{Kind: kindCreationFailure, Failure: err}
}

func staticSlot(ref *ExternalRef) Transitional {
	return Transitional{Kind: kindStaticExternal, Static: ref}
}

// sentinelSlot is swapped into a slot while it is being replaced in
// place, so the slice never observes a zero-value Transitional during a
// concurrent update pass.
func sentinelSlot() Transitional {
	return Transitional{Kind: kindSentinel}
}

// PendingContainer is a created-but-not-yet-started container: the
// result of a successful Ignite-phase create.
type PendingContainer struct {
	handle        string
	containerName string
	id            string
	startPolicy   StartPolicy
	waitFor       WaitFor
}

// start starts the container and runs its WaitFor strategy, producing a
// RunningContainer on success.
func (p *PendingContainer) start(ctx context.Context, api docker.API) (*RunningContainer, error) {
	if err := api.StartContainer(ctx, p.id); err != nil {
		return nil, newDaemonError(fmt.Sprintf("start container %q", p.containerName), err)
	}
	running := &RunningContainer{
		handle:        p.handle,
		containerName: p.containerName,
		id:            p.id,
	}
	wf := p.waitFor
	if wf == nil {
		wf = NoWait{}
	}
	if err := wf.Wait(ctx, running, api); err != nil {
		return nil, err
	}
	return running, nil
}

// RunningContainer is a live container handed to the test body. It is
// mutated only by inspect, which records its IP and port map.
type RunningContainer struct {
	handle        string
	containerName string
	id            string
	ip            string
	ports         map[string][]string
}

// Handle returns the user-visible handle this container was declared
// under.
func (r *RunningContainer) Handle() string { return r.handle }

// Name returns the daemon-level container name.
func (r *RunningContainer) Name() string { return r.containerName }

// ID returns the daemon-assigned container ID.
func (r *RunningContainer) ID() string { return r.id }

// IP returns the container's address on the run's network, or "0.0.0.0"
// if it could not be determined (see inspect).
func (r *RunningContainer) IP() string { return r.ip }

// Port returns the host-side bindings for a container port spec such as
// "80/tcp".
func (r *RunningContainer) Port(containerPort string) []string { return r.ports[containerPort] }

// inspect queries the daemon for this container's network address and
// port bindings on networkName.
func (r *RunningContainer) inspect(ctx context.Context, api docker.API, networkName string, forceLoopback bool) error {
	info, err := api.InspectContainer(ctx, r.id)
	if err != nil {
		return newDaemonError(fmt.Sprintf("inspect container %q", r.containerName), err)
	}

	if forceLoopback {
		r.ip = "127.0.0.1"
	} else {
		r.ip = "0.0.0.0"
		if info.NetworkSettings != nil {
			if net, ok := info.NetworkSettings.Networks[networkName]; ok && net != nil {
				r.ip = net.IPAddress
			}
		}
	}

	r.ports = make(map[string][]string)
	if info.NetworkSettings != nil {
		for port, bindings := range info.NetworkSettings.Ports {
			for _, b := range bindings {
				if _, err := strconv.Atoi(b.HostPort); err != nil {
					return newHostPortError(fmt.Sprintf("container %q port %q: malformed host port %q", r.containerName, port, b.HostPort), err)
				}
				r.ports[string(port)] = append(r.ports[string(port)], b.HostPort)
			}
		}
	}
	return nil
}

// ExternalRef identifies a container started outside this run but
// referenced by a static-external composition. The engine resolves it
// into a RunningContainer but never creates or destroys it. The slot
// stays tagged StaticExternal for the rest of the run — resolved only
// stores its running form, it does not become a Running slot.
type ExternalRef struct {
	handle   string
	id       string
	resolved *RunningContainer
}

func (e *ExternalRef) resolve(ctx context.Context, api docker.API) (*RunningContainer, error) {
	info, err := api.InspectContainer(ctx, e.id)
	if err != nil {
		return nil, newDaemonError(fmt.Sprintf("inspect static container %q", e.id), err)
	}
	name := strings.TrimPrefix(info.Name, "/")
	running := &RunningContainer{handle: e.handle, containerName: name, id: e.id}
	e.resolved = running
	return running, nil
}

// CleanupContainer is the Debris-phase descriptor for a container that
// the engine owns and must remove (or stop) at teardown.
type CleanupContainer struct {
	handle        string
	containerName string
	id            string
	logOptions    *LogOptions
}

// toHostConfig and toNetworkingConfig build the moby client request
// payloads for a composition's create call. Kept close to Composition
// rather than in internal/docker, since the field mapping is
// engine-policy (named-volume suffixing, network join), not a daemon
// client concern.
func (c *Composition) toContainerConfig(env map[string]string) *container.Config {
	cfg := &container.Config{
		Image: c.repository,
		Env:   make([]string, 0, len(env)),
	}
	for k, v := range env {
		cfg.Env = append(cfg.Env, k+"="+v)
	}
	return cfg
}

func (c *Composition) toHostConfig(binds []string) *container.HostConfig {
	return &container.HostConfig{
		Binds: binds,
	}
}

func toNetworkingConfig(networkID string) *network.NetworkingConfig {
	return &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			networkID: {},
		},
	}
}

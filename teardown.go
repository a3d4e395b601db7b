package dockertest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hullbase/dockertest/internal/docker"
)

// teardownPlan describes the resources a run driver must clean up once
// the test body has returned, beyond what debrisEngine already tracks.
type teardownPlan struct {
	networkID       string
	volumeNames     []string
	selfContainerID string
}

// teardown runs the Debris-phase cleanup chosen by strategy. Every
// sub-step is best-effort: failures are collected and logged but never
// abort the remaining steps.
func (d *debrisEngine) teardown(ctx context.Context, api docker.API, log *slog.Logger, strategy PruneStrategy, testFailed bool, plan teardownPlan) []error {
	if strategy == PruneNever {
		return nil
	}
	if strategy == PruneRunningOnFailure && testFailed {
		return nil
	}

	var errs []error
	var mu sync.Mutex
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		if log != nil {
			log.Warn("teardown step failed", "error", err)
		}
	}

	d.handleLogs(ctx, api, testFailed, record)

	if strategy == PruneStopOnFailure && testFailed {
		d.stopContainers(ctx, api, record)
		d.teardownNetwork(ctx, api, plan, record)
		d.disconnectStatic(ctx, api, plan, record)
		return errs
	}

	// Full remove path: containers before volumes, network after
	// containers (the daemon rejects volume removal while any container
	// still references the volume).
	d.removeContainers(ctx, api, record)
	d.teardownNetwork(ctx, api, plan, record)
	d.removeVolumes(ctx, api, plan, record)
	d.disconnectStatic(ctx, api, plan, record)

	return errs
}

func (d *debrisEngine) handleLogs(ctx context.Context, api docker.API, testFailed bool, record func(error)) {
	var wg sync.WaitGroup
	for _, c := range d.cleanup {
		if c.logOptions == nil {
			continue
		}
		if c.logOptions.Policy == LogOnError && !testFailed {
			continue
		}
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			stdout := c.logOptions.Source == LogStdout || c.logOptions.Source == LogBoth
			stderr := c.logOptions.Source == LogStderr || c.logOptions.Source == LogBoth
			rc, err := api.ContainerLogs(ctx, c.id, stdout, stderr)
			if err != nil {
				record(newLogWriteError("fetch logs for "+c.containerName, err))
				return
			}
			defer rc.Close()
			buf := make([]byte, 32*1024)
			var all []byte
			for {
				n, readErr := rc.Read(buf)
				if n > 0 {
					all = append(all, buf[:n]...)
				}
				if readErr != nil {
					break
				}
			}
			if c.logOptions.Action == nil {
				return
			}
			if err := c.logOptions.Action(c.containerName, string(all)); err != nil {
				record(newLogWriteError("write logs for "+c.containerName, err))
			}
		}()
	}
	wg.Wait()
}

func (d *debrisEngine) removeContainers(ctx context.Context, api docker.API, record func(error)) {
	var wg sync.WaitGroup
	for _, c := range d.cleanup {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.RemoveContainer(ctx, c.id, true); err != nil {
				record(newDaemonError("remove container "+c.containerName, err))
			}
		}()
	}
	wg.Wait()
}

func (d *debrisEngine) stopContainers(ctx context.Context, api docker.API, record func(error)) {
	var wg sync.WaitGroup
	for _, c := range d.cleanup {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.StopContainer(ctx, c.id); err != nil {
				record(newDaemonError("stop container "+c.containerName, err))
			}
		}()
	}
	wg.Wait()
}

func (d *debrisEngine) teardownNetwork(ctx context.Context, api docker.API, plan teardownPlan, record func(error)) {
	if plan.networkID == "" {
		return
	}
	if plan.selfContainerID != "" {
		if err := api.DisconnectNetwork(ctx, plan.networkID, plan.selfContainerID, true); err != nil {
			record(newDaemonError("disconnect self container from network", err))
		}
	}
	if err := api.RemoveNetwork(ctx, plan.networkID); err != nil {
		record(newDaemonError("remove network", err))
	}
}

func (d *debrisEngine) removeVolumes(ctx context.Context, api docker.API, plan teardownPlan, record func(error)) {
	var wg sync.WaitGroup
	for _, name := range plan.volumeNames {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.RemoveVolume(ctx, name, true); err != nil {
				// Volume-remove errors are logged, not fatal.
				record(newDaemonError("remove volume "+name, err))
			}
		}()
	}
	wg.Wait()
}

func (d *debrisEngine) disconnectStatic(ctx context.Context, api docker.API, plan teardownPlan, record func(error)) {
	if plan.networkID == "" {
		return
	}
	var wg sync.WaitGroup
	for _, ref := range d.static {
		ref := ref
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.DisconnectNetwork(ctx, plan.networkID, ref.id, true); err != nil {
				record(newDaemonError("disconnect static container "+ref.id, err))
			}
		}()
	}
	wg.Wait()
}

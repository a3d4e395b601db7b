package dockertest

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hullbase/dockertest/internal/docker"
)

const defaultNamespace = "dockertest-rs"

// bootstrapEngine holds raw compositions before any naming has been
// assigned. It is the entry phase; fuel() is its only exit.
type bootstrapEngine struct {
	namespace  string
	k          *keeper[*Composition]
	logOptions map[string]*LogOptions
}

// bootstrap builds the Keeper over comps in declaration order. Duplicate
// handles are recorded as collisions but every composition keeps its
// slot — lookup is what fails for a collided handle, not creation.
func bootstrap(comps []*Composition, namespace string) *bootstrapEngine {
	if namespace == "" {
		namespace = defaultNamespace
	}
	logOptions := make(map[string]*LogOptions, len(comps))
	for _, c := range comps {
		if c.logOptions != nil {
			logOptions[c.handle] = c.logOptions
		}
	}
	return &bootstrapEngine{
		namespace:  namespace,
		k:          newKeeper(comps, func(c *Composition) string { return c.handle }),
		logOptions: logOptions,
	}
}

// resolveFinalContainerName assigns container_name = "{namespace}-{handle}-{rand20}"
// for every composition, or "{namespace}-{explicitName}-{rand20}" when an
// explicit name was supplied. Names are fixed for the remainder of the run.
func (b *bootstrapEngine) resolveFinalContainerName() {
	for _, c := range b.k.kept {
		component := c.handle
		if c.explicitName != "" {
			component = c.explicitName
		}
		c.containerName = fmt.Sprintf("%s-%s-%s", b.namespace, component, randomString(20))
	}
}

// fuel advances to Fueling without further mutation.
func (b *bootstrapEngine) fuel() *fuelEngine {
	return &fuelEngine{k: b.k, logOptions: b.logOptions}
}

// fuelEngine holds compositions with final names assigned; image pulls
// and cross-container name injection happen here.
type fuelEngine struct {
	k          *keeper[*Composition]
	logOptions map[string]*LogOptions
}

// resolveInjectContainerNameEnv is a two-pass operation: the first pass
// validates every injection request against the keeper (target handle
// exists and is uncollided), collecting (requester, targetName, envVar).
// Only if every request validates does the second pass mutate env maps.
// A failure in the first pass is fatal and leaves every composition
// unmutated.
func (f *fuelEngine) resolveInjectContainerNameEnv(log warner) error {
	type injection struct {
		requester  *Composition
		targetName string
		envVar     string
	}
	var planned []injection

	for _, c := range f.k.kept {
		for targetHandle, envVar := range c.injectEnv {
			target, err := f.k.resolve(targetHandle)
			if err != nil {
				return newStartupError(fmt.Sprintf(
					"composition %q requests injection of unknown/colliding handle %q", c.handle, targetHandle))
			}
			planned = append(planned, injection{requester: c, targetName: target.containerName, envVar: envVar})
		}
	}

	for _, p := range planned {
		if _, exists := p.requester.env[p.envVar]; exists && log != nil {
			log.Warnf("overwriting existing env var %q on composition %q with injected container name", p.envVar, p.requester.handle)
		}
		p.requester.env[p.envVar] = p.targetName
	}
	return nil
}

// warner is the minimal logging surface resolveInjectContainerNameEnv
// needs; satisfied by *slog.Logger via the slogWarner adapter in dockertest.go.
type warner interface {
	Warnf(format string, args ...any)
}

// pullImages issues a pull for every non-static, non-local composition
// concurrently. All pulls run to completion regardless of individual
// failure — a pull error is captured per-composition and logged, but
// never aborts the run here; an unavailable image surfaces a clearer,
// per-container error later, at create time.
func (f *fuelEngine) pullImages(ctx context.Context, api docker.API, defaultSource Source, log warner) {
	var wg sync.WaitGroup
	for _, c := range f.k.kept {
		if c.isStaticExternal() {
			continue
		}
		src := defaultSource
		if c.source != nil {
			src = *c.source
		}
		if src.isLocal() {
			continue
		}
		wg.Add(1)
		go func(c *Composition, policy PullPolicy) {
			defer wg.Done()
			if policy == PullIfNotPresent {
				present, err := api.ImageExists(ctx, c.repository)
				if err == nil && present {
					return
				}
			}
			if err := api.PullImage(ctx, c.repository); err != nil && log != nil {
				log.Warnf("%v", newPullError(fmt.Sprintf("pull %q for composition %q", c.repository, c.handle), err))
			}
		}(c, src.policy)
	}
	wg.Wait()
}

// ignite concurrently creates every composition's container against
// networkID, producing one Transitional slot per composition. It always
// advances to Igniting, even when some creates failed — the caller must
// inspect hasFailures and invoke cleanup() before aborting.
func (f *fuelEngine) ignite(ctx context.Context, api docker.API, networkID string) *igniteEngine {
	slots := make([]Transitional, len(f.k.kept))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.NumCPU()*4))
	for i, c := range f.k.kept {
		i, c := i, c
		g.Go(func() error {
			if c.isStaticExternal() {
				slots[i] = staticSlot(&ExternalRef{handle: c.handle, id: c.staticExternalID})
				return nil
			}

			var binds []string
			for _, v := range c.namedVolumes {
				binds = append(binds, v.volumeID+":"+v.mountPath)
			}
			cfg := c.toContainerConfig(c.env)
			hostCfg := c.toHostConfig(binds)
			netCfg := toNetworkingConfig(networkID)

			id, err := api.CreateContainer(gctx, c.containerName, cfg, hostCfg, netCfg)
			if err != nil {
				slots[i] = failureSlot(newDaemonError(fmt.Sprintf("create container %q", c.containerName), err))
				return nil
			}
			slots[i] = pendingSlot(&PendingContainer{
				handle:        c.handle,
				containerName: c.containerName,
				id:            id,
				startPolicy:   c.startPolicy,
				waitFor:       c.waitFor,
			})
			return nil
		})
	}
	_ = g.Wait() // every slot reports its own outcome; the aggregate error is unused by design

	return &igniteEngine{k: withItems(f.k, slots), logOptions: f.logOptions}
}

// igniteEngine holds a mix of Pending / StaticExternal / CreationFailure
// slots. cleanup() is the failure exit; orbit() is the success exit.
type igniteEngine struct {
	k          *keeper[Transitional]
	logOptions map[string]*LogOptions
}

func (e *igniteEngine) hasFailures() bool {
	for _, s := range e.k.kept {
		if s.Kind == kindCreationFailure {
			return true
		}
	}
	return false
}

// cleanup force-removes every Pending container concurrently and drops
// every CreationFailure, returning the collected creation errors. This
// is the "obvious symmetric cleanup" for the failure path — the original
// left this operation unimplemented.
func (e *igniteEngine) cleanup(ctx context.Context, api docker.API) []error {
	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup

	for _, s := range e.k.kept {
		switch s.Kind {
		case kindCreationFailure:
			mu.Lock()
			errs = append(errs, s.Failure)
			mu.Unlock()
		case kindPending:
			wg.Add(1)
			go func(p *PendingContainer) {
				defer wg.Done()
				if err := api.RemoveContainer(ctx, p.id, true); err != nil {
					mu.Lock()
					errs = append(errs, newDaemonError(fmt.Sprintf("cleanup remove container %q", p.containerName), err))
					mu.Unlock()
				}
			}(s.Pending)
		}
	}
	wg.Wait()
	return errs
}

// orbit starts every container. Strict containers start sequentially in
// declaration order; the first strict failure aborts further strict
// starts. Relaxed containers all start concurrently; their join is
// always awaited after strict startup settles, win or lose, so no
// goroutine is ever leaked. Static-external slots are left untouched —
// they are resolved, not started.
//
// On any start failure the engine returns to Igniting (second return
// value non-nil) so the caller can run cleanup(); the first return value
// is only valid when err is nil.
func (e *igniteEngine) orbit(ctx context.Context, api docker.API) (*orbitEngine, *igniteEngine, error) {
	slots := e.k.kept

	var relaxedIdx []int
	var firstStrictErr error

	for i, s := range slots {
		if s.Kind != kindPending {
			continue
		}
		if s.Pending.startPolicy == Relaxed {
			relaxedIdx = append(relaxedIdx, i)
			continue
		}
		if firstStrictErr != nil {
			// Abort without scanning further: any relaxed slots declared
			// after this point never make it into relaxedIdx, so they stay
			// Pending and get reaped by cleanup() along with this one. Fine
			// since the run is aborting either way.
			break
		}
		running, err := s.Pending.start(ctx, api)
		if err != nil {
			firstStrictErr = err
			continue
		}
		slots[i] = runningSlot(running)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstRelaxedErr error
	for _, i := range relaxedIdx {
		i := i
		p := slots[i].Pending
		wg.Add(1)
		go func() {
			defer wg.Done()
			placeholder := sentinelSlot()
			mu.Lock()
			slots[i] = placeholder
			mu.Unlock()

			running, err := p.start(ctx, api)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstRelaxedErr == nil {
					firstRelaxedErr = err
				}
				// The container was already created in ignite and still
				// exists on the daemon even though start failed; keep the
				// slot Pending (not CreationFailure) so the caller's
				// cleanup() force-removes it instead of leaking it.
				slots[i] = pendingSlot(p)
				return
			}
			slots[i] = runningSlot(running)
		}()
	}
	wg.Wait() // relaxed goroutines are always reaped, win or lose

	if firstStrictErr != nil {
		return nil, &igniteEngine{k: withItems(e.k, slots), logOptions: e.logOptions}, firstStrictErr
	}
	if firstRelaxedErr != nil {
		return nil, &igniteEngine{k: withItems(e.k, slots), logOptions: e.logOptions}, firstRelaxedErr
	}

	// Resolve static-external slots now that strict+relaxed have settled.
	// The slot stays StaticExternal; resolve only fills in its running
	// form (see the invariant that Orbit leaves every slot Running or
	// StaticExternal, never collapsing one into the other).
	for _, s := range slots {
		if s.Kind != kindStaticExternal {
			continue
		}
		if _, err := s.Static.resolve(ctx, api); err != nil {
			return nil, &igniteEngine{k: withItems(e.k, slots), logOptions: e.logOptions}, err
		}
	}

	return &orbitEngine{k: withItems(e.k, slots), logOptions: e.logOptions}, nil, nil
}

// orbitEngine holds every slot as Running (or StaticExternal, with its
// running form already resolved by orbit). The test body runs against this phase.
type orbitEngine struct {
	k          *keeper[Transitional]
	logOptions map[string]*LogOptions
}

// resolveHandle looks up a running container by its user-facing handle.
// A StaticExternal slot resolves to the running form recorded by
// orbit()'s resolve step.
func (o *orbitEngine) resolveHandle(handle string) (*RunningContainer, error) {
	t, err := o.k.resolve(handle)
	if err != nil {
		if err == errHandleCollision {
			return nil, newTestBodyError(fmt.Sprintf("handle %q defined multiple times", handle))
		}
		return nil, newTestBodyError(fmt.Sprintf("handle %q not found", handle))
	}
	if t.Kind == kindStaticExternal {
		return t.Static.resolved, nil
	}
	return t.Running, nil
}

// inspect populates IP and port map for every running container against
// networkName, including resolved static-external containers.
func (o *orbitEngine) inspect(ctx context.Context, api docker.API, networkName string, forceLoopback bool) []error {
	var errs []error
	for _, t := range o.k.kept {
		var rc *RunningContainer
		switch t.Kind {
		case kindRunning:
			rc = t.Running
		case kindStaticExternal:
			rc = t.Static.resolved
		default:
			continue
		}
		if err := rc.inspect(ctx, api, networkName, forceLoopback); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// clone duplicates the lookup tables and slot references (not the
// underlying daemon resources) for handing to the test body, so the test
// body's view cannot mutate the engine's own bookkeeping.
func (o *orbitEngine) clone() *orbitEngine {
	kept := make([]Transitional, len(o.k.kept))
	copy(kept, o.k.kept)
	handlers := make(map[string]int, len(o.k.lookupHandlers))
	for k, v := range o.k.lookupHandlers {
		handlers[k] = v
	}
	collisions := make(map[string]struct{}, len(o.k.lookupCollisions))
	for k := range o.k.lookupCollisions {
		collisions[k] = struct{}{}
	}
	return &orbitEngine{
		k:          &keeper[Transitional]{kept: kept, lookupHandlers: handlers, lookupCollisions: collisions},
		logOptions: o.logOptions,
	}
}

// decommission partitions Running slots into the Debris cleanup list and
// StaticExternal slots into a separate list for static-registry cleanup.
func (o *orbitEngine) decommission() *debrisEngine {
	d := &debrisEngine{}
	for _, t := range o.k.kept {
		switch t.Kind {
		case kindRunning:
			d.cleanup = append(d.cleanup, CleanupContainer{
				handle:        t.Running.handle,
				containerName: t.Running.containerName,
				id:            t.Running.id,
				logOptions:    o.logOptions[t.Running.handle],
			})
		case kindStaticExternal:
			d.static = append(d.static, t.Static)
		}
	}
	return d
}

// debrisEngine is the terminal phase: cleanup descriptors for owned
// containers plus the static-external refs. Logs are fetched during
// teardown, not stored here. teardown is its only operation.
type debrisEngine struct {
	cleanup []CleanupContainer
	static  []*ExternalRef
}

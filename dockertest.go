// Package dockertest orchestrates ephemeral Docker containers for a test
// body: declare a set of Compositions, call Run, and the package brings
// every container to a ready state, hands you live handles to them, and
// tears the environment down according to a configurable prune policy.
package dockertest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hullbase/dockertest/internal/docker"
	"github.com/hullbase/dockertest/internal/logging"
	"github.com/hullbase/dockertest/internal/metrics"
)

// TestingT is the subset of *testing.T that Run needs. Satisfied
// directly by *testing.T; accepting an interface keeps this package free
// of an import on the testing package itself.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// DockerTest declares and runs one test environment. The zero value is
// not usable; construct with New.
type DockerTest struct {
	mu sync.Mutex

	compositions      []*Composition
	defaultSource     Source
	namespace         string
	externalNetworkID string

	log      *slog.Logger
	recorder *metrics.Recorder
	api      docker.API // test seam; built lazily from the environment when nil
}

// New returns a DockerTest with the default namespace ("dockertest-rs")
// and default source (remote, pulled only if not already present).
func New() *DockerTest {
	return &DockerTest{
		defaultSource: RemoteSource(PullIfNotPresent),
		log:           logging.New(false).Logger,
	}
}

// WithDefaultSource sets the image source used by any composition that
// does not declare its own.
func (d *DockerTest) WithDefaultSource(s Source) *DockerTest {
	d.defaultSource = s
	return d
}

// WithNamespace overrides the default container-naming namespace.
func (d *DockerTest) WithNamespace(name string) *DockerTest {
	d.namespace = name
	return d
}

// WithMetricsRegistry enables phase-duration and run-count
// instrumentation, registering collectors into reg. Without a call to
// this method, Run records nothing — a library import should never
// reach for the global Prometheus registry on its own.
func (d *DockerTest) WithMetricsRegistry(reg *prometheus.Registry) *DockerTest {
	d.recorder = metrics.NewRecorder(reg)
	return d
}

// WithLogger overrides the default text-mode stdout logger.
func (d *DockerTest) WithLogger(log *slog.Logger) *DockerTest {
	d.log = log
	return d
}

// WithExternalNetwork joins every container to an already-existing
// network instead of creating (and later destroying) a run-scoped one.
func (d *DockerTest) WithExternalNetwork(networkID string) *DockerTest {
	d.externalNetworkID = networkID
	return d
}

// WithDockerAPI overrides the Docker daemon client. Exists so tests can
// supply a fake docker.API; production callers never need it.
func (d *DockerTest) WithDockerAPI(api docker.API) *DockerTest {
	d.api = api
	return d
}

// AddComposition registers one container specification for the next Run.
func (d *DockerTest) AddComposition(c *Composition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.compositions = append(d.compositions, c)
}

// Run brings up every registered composition, invokes body with a handle
// to each running container, tears the environment down, and fails t on
// any engine-level error. A panic raised by body (including a failed
// Operations.Handle lookup) is re-raised after teardown completes,
// preserving the original payload.
func (d *DockerTest) Run(t TestingT, body func(Operations)) {
	t.Helper()
	if err := d.RunContext(context.Background(), t, body); err != nil {
		t.Fatalf("dockertest: %v", err)
	}
}

// RunContext is Run's non-panicking counterpart, for callers already
// inside their own supervision. It returns engine-level errors (daemon,
// startup) instead of failing t directly; image-pull and inspect failures
// are logged as warnings, not returned. A panic raised
// by body is still re-raised after teardown, regardless of this return
// path, since panic propagation is how a test body signals its own
// failure.
func (d *DockerTest) RunContext(ctx context.Context, t TestingT, body func(Operations)) error {
	api := d.api
	if api == nil {
		client, err := docker.NewClient()
		if err != nil {
			return newDaemonError("connect to docker daemon", err)
		}
		defer client.Close()
		api = client
	}

	runID := randomString(20)
	selfID, hasSelf := selfContainerID()
	strategy := pruneStrategyFromEnv(d.log)

	volumeNames := d.suffixNamedVolumes(runID)

	boot := bootstrap(d.compositions, d.namespace)
	boot.resolveFinalContainerName()
	fuelE := boot.fuel()

	if err := fuelE.resolveInjectContainerNameEnv(slogWarner{d.log}); err != nil {
		return err
	}

	d.recordPhase("fuel", func() { fuelE.pullImages(ctx, api, d.defaultSource, slogWarner{d.log}) })

	networkName := d.externalNetworkID
	createdNetwork := false
	if networkName == "" {
		networkName = "dockertest-rs-" + runID
		if _, err := api.CreateNetwork(ctx, networkName); err != nil {
			return newDaemonError("create network", err)
		}
		createdNetwork = true
	}
	if hasSelf {
		if err := api.ConnectNetwork(ctx, networkName, selfID); err != nil {
			return newDaemonError("connect self container to network", err)
		}
	}

	for _, name := range volumeNames {
		if err := api.CreateVolume(ctx, name); err != nil {
			return newDaemonError("create volume "+name, err)
		}
	}

	plan := teardownPlan{volumeNames: volumeNames}
	if createdNetwork {
		plan.networkID = networkName
	}
	if hasSelf {
		plan.selfContainerID = selfID
	}

	var ignited *igniteEngine
	d.recordPhase("ignite", func() { ignited = fuelE.ignite(ctx, api, networkName) })

	if ignited.hasFailures() {
		ignited.cleanup(ctx, api)
		d.teardownNetworkAndVolumes(ctx, api, plan)
		d.recordOutcome("startup_failure")
		return firstIgniteFailure(ignited)
	}

	var orbit *orbitEngine
	var failedIgnite *igniteEngine
	var orbitErr error
	d.recordPhase("orbit", func() { orbit, failedIgnite, orbitErr = ignited.orbit(ctx, api) })
	if orbitErr != nil {
		failedIgnite.cleanup(ctx, api)
		d.teardownNetworkAndVolumes(ctx, api, plan)
		d.recordOutcome("start_failure")
		return orbitErr
	}

	if errs := orbit.inspect(ctx, api, networkName, runtime.GOOS == "windows"); len(errs) > 0 {
		for _, e := range errs {
			d.log.Warn("inspect failed for a container", "error", e)
		}
	}

	if d.recorder != nil {
		d.recorder.ContainersActive.Set(float64(len(orbit.k.kept)))
	}

	panicked, panicVal := runTestBody(Operations{engine: orbit.clone()}, body)

	debris := orbit.decommission()
	d.recordPhase("debris", func() {
		for _, e := range debris.teardown(ctx, api, d.log, strategy, panicked, plan) {
			d.log.Warn("teardown step failed", "error", e)
		}
	})

	if panicked {
		d.recordOutcome("test_body_panic")
		panic(panicVal)
	}
	d.recordOutcome("success")
	return nil
}

// runTestBody runs body in its own goroutine so a panic becomes a value
// the driver can observe instead of unwinding straight through teardown.
func runTestBody(ops Operations, body func(Operations)) (panicked bool, panicVal any) {
	done := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				panicVal = r
			}
			close(done)
		}()
		body(ops)
	}()
	<-done
	return
}

func firstIgniteFailure(e *igniteEngine) error {
	for _, s := range e.k.kept {
		if s.Kind == kindCreationFailure {
			return s.Failure
		}
	}
	return newProcessingError("ignite reported failure but no CreationFailure slot was found", nil)
}

func (d *DockerTest) teardownNetworkAndVolumes(ctx context.Context, api docker.API, plan teardownPlan) {
	(&debrisEngine{}).teardownNetwork(ctx, api, plan, func(err error) {
		if err != nil {
			d.log.Warn("teardown step failed", "error", err)
		}
	})
	(&debrisEngine{}).removeVolumes(ctx, api, plan, func(err error) {
		if err != nil {
			d.log.Warn("teardown step failed", "error", err)
		}
	})
}

// suffixNamedVolumes rewrites every composition's named-volume bindings
// so the user-provided volume ID becomes "{volumeID}-{runID}", with the
// same original ID always resolving to the same suffixed name across
// compositions. Returns the distinct suffixed names for creation/teardown.
func (d *DockerTest) suffixNamedVolumes(runID string) []string {
	suffixed := make(map[string]string)
	var names []string
	for _, c := range d.compositions {
		for i, v := range c.namedVolumes {
			name, ok := suffixed[v.volumeID]
			if !ok {
				name = v.volumeID + "-" + runID
				suffixed[v.volumeID] = name
				names = append(names, name)
			}
			c.namedVolumes[i].volumeID = name
		}
	}
	return names
}

func (d *DockerTest) recordPhase(phase string, fn func()) {
	if d.recorder == nil {
		fn()
		return
	}
	timer := prometheus.NewTimer(d.recorder.PhaseDuration.WithLabelValues(phase))
	defer timer.ObserveDuration()
	fn()
}

func (d *DockerTest) recordOutcome(outcome string) {
	if d.recorder == nil {
		return
	}
	d.recorder.RunsTotal.WithLabelValues(outcome).Inc()
}

// slogWarner adapts *slog.Logger to the warner interface used by
// resolveInjectContainerNameEnv.
type slogWarner struct{ log *slog.Logger }

func (w slogWarner) Warnf(format string, args ...any) {
	if w.log == nil {
		return
	}
	w.log.Warn(fmt.Sprintf(format, args...))
}

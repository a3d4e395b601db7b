package dockertest

// StartPolicy controls how a container is brought up during Orbit.
type StartPolicy int

const (
	// Strict containers start sequentially in declaration order; the
	// first failure aborts further strict starts.
	Strict StartPolicy = iota
	// Relaxed containers start concurrently in the background; their
	// join is awaited after strict startup completes.
	Relaxed
)

// LogSource selects which stream(s) are captured at teardown.
type LogSource int

const (
	LogStdout LogSource = iota
	LogStderr
	LogBoth
)

// LogPolicy controls whether logs are retrieved at Debris time.
type LogPolicy int

const (
	// LogAlways retrieves logs unconditionally.
	LogAlways LogPolicy = iota
	// LogOnError retrieves logs only if the test body failed.
	LogOnError
)

// LogOptions configures per-container log capture at teardown.
type LogOptions struct {
	Source LogSource
	Policy LogPolicy
	// Action receives the captured log text. A nil Action is a no-op
	// (logs are still fetched, for the side effect of a fetch failure
	// surfacing as a KindLogWrite error, unless that is undesired).
	Action func(containerName string, logs string) error
}

// Composition is a single container's declarative specification. Built
// with the With* methods, then handed to DockerTest.AddComposition.
type Composition struct {
	handle           string
	repository       string
	source           *Source
	explicitName     string
	startPolicy      StartPolicy
	env              map[string]string
	namedVolumes     []namedVolumeBinding
	injectEnv        map[string]string // target handle -> env var name
	logOptions       *LogOptions
	staticExternalID string

	// containerName is the final daemon-level name, assigned by
	// resolveFinalContainerName in Bootstrap. Empty until then.
	containerName string
	waitFor       WaitFor
}

// WithWaitFor sets the readiness check consulted once this container
// reports started. Defaults to NoWait.
func (c *Composition) WithWaitFor(w WaitFor) *Composition {
	c.waitFor = w
	return c
}

type namedVolumeBinding struct {
	volumeID  string
	mountPath string
}

// NewComposition declares a container built from the given image
// repository. The handle defaults to the repository name; override with
// WithHandle.
func NewComposition(repository string) *Composition {
	return &Composition{
		handle:     repository,
		repository: repository,
		env:        make(map[string]string),
		injectEnv:  make(map[string]string),
	}
}

// WithHandle overrides the default handle (which is the image
// repository) used for lookup and for the container's name component.
func (c *Composition) WithHandle(handle string) *Composition {
	c.handle = handle
	return c
}

// WithContainerName overrides the handle-derived component of the final
// container name with an explicit one. Namespace and random suffix are
// still applied.
func (c *Composition) WithContainerName(name string) *Composition {
	c.explicitName = name
	return c
}

// WithStartPolicy sets whether this container starts strictly (serial,
// fail-fast) or relaxed (concurrent, best-effort).
func (c *Composition) WithStartPolicy(p StartPolicy) *Composition {
	c.startPolicy = p
	return c
}

// WithEnv sets a single environment variable on the container.
func (c *Composition) WithEnv(key, value string) *Composition {
	c.env[key] = value
	return c
}

// WithSource overrides the default image source for this composition.
func (c *Composition) WithSource(s Source) *Composition {
	c.source = &s
	return c
}

// WithNamedVolume binds a named volume to a mount path inside the
// container. volumeID is suffixed with the run ID at run time; the same
// volumeID used across compositions resolves to the same suffixed name.
func (c *Composition) WithNamedVolume(volumeID, mountPath string) *Composition {
	c.namedVolumes = append(c.namedVolumes, namedVolumeBinding{volumeID: volumeID, mountPath: mountPath})
	return c
}

// WithInjectContainerNameEnv requests that the final container name of
// the composition identified by handle be injected into this
// composition's environment under envVar, once handle resolves
// (Fuel-phase operation).
func (c *Composition) WithInjectContainerNameEnv(handle, envVar string) *Composition {
	c.injectEnv[handle] = envVar
	return c
}

// WithLogOptions configures teardown-time log capture for this container.
func (c *Composition) WithLogOptions(opts LogOptions) *Composition {
	c.logOptions = &opts
	return c
}

// AsStaticExternal marks this composition as referring to a container
// already running outside this test run, identified by its daemon ID.
// The engine will not create, start, or destroy it; only resolve it.
func (c *Composition) AsStaticExternal(existingContainerID string) *Composition {
	c.staticExternalID = existingContainerID
	return c
}

func (c *Composition) isStaticExternal() bool {
	return c.staticExternalID != ""
}

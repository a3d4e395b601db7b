package dockertest

import (
	"context"
	"strings"

	"github.com/hullbase/dockertest/internal/docker"
)

// WaitFor is the per-composition readiness check consulted while a
// container starts. It is given the container once it reports running so
// it can probe logs, ports, or an endpoint before the engine proceeds.
type WaitFor interface {
	Wait(ctx context.Context, c *RunningContainer, api docker.API) error
}

// NoWait is a WaitFor that is satisfied as soon as the daemon reports the
// container running. This is the default when a composition specifies no
// WaitFor.
type NoWait struct{}

func (NoWait) Wait(context.Context, *RunningContainer, docker.API) error {
	return nil
}

// LogLine checks that Needle appears in the container's stdout/stderr. It
// fetches ContainerLogs once and reads that stream to its end; if Needle is
// not in it, Wait fails without retrying. It is a minimal, dependency-free readiness check
// sufficient to exercise the WaitFor interface; it is not a substitute for
// a dedicated log-streaming probe library.
type LogLine struct {
	Needle string
}

func (w LogLine) Wait(ctx context.Context, c *RunningContainer, api docker.API) error {
	rc, err := api.ContainerLogs(ctx, c.id, true, true)
	if err != nil {
		return newDaemonError("fetch logs for wait", err)
	}
	defer rc.Close()

	buf := make([]byte, 4096)
	var collected strings.Builder
	for {
		n, readErr := rc.Read(buf)
		if n > 0 {
			collected.Write(buf[:n])
			if strings.Contains(collected.String(), w.Needle) {
				return nil
			}
		}
		if readErr != nil {
			break
		}
	}
	return newProcessingError("wait-for log line not found: "+w.Needle, nil)
}

package dockertest

import "os"

const selfContainerEnvVar = "DOCKERTEST_CONTAINER_ID_INJECT_TO_NETWORK"

// selfContainerID returns the ID the harness should treat as its own
// container, if DOCKERTEST_CONTAINER_ID_INJECT_TO_NETWORK is set. When
// present, the run driver joins that container to the run's network so
// the harness itself (when it runs inside Docker) can reach the
// containers it is testing. No auto-detection is attempted.
func selfContainerID() (string, bool) {
	v, ok := os.LookupEnv(selfContainerEnvVar)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

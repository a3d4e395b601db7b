package dockertest

import (
	"log/slog"
	"os"
)

// PruneStrategy selects teardown behavior after a run completes.
type PruneStrategy int

const (
	// PruneAlways removes every container, network, and named volume
	// created by the run, regardless of outcome. The default.
	PruneAlways PruneStrategy = iota
	// PruneNever skips all teardown.
	PruneNever
	// PruneRunningOnFailure skips all teardown if the test body failed;
	// otherwise behaves like PruneAlways.
	PruneRunningOnFailure
	// PruneStopOnFailure stops (without removing) every container and
	// removes the network if the test body failed, skipping volume
	// removal; otherwise behaves like PruneAlways.
	PruneStopOnFailure
)

const pruneEnvVar = "DOCKERTEST_PRUNE"

// pruneStrategyFromEnv reads DOCKERTEST_PRUNE. Unset or unrecognized
// values default to PruneAlways; an unrecognized value also logs a
// warning naming the bad value.
func pruneStrategyFromEnv(log *slog.Logger) PruneStrategy {
	v, ok := os.LookupEnv(pruneEnvVar)
	if !ok {
		return PruneAlways
	}
	switch v {
	case "never":
		return PruneNever
	case "running_on_failure":
		return PruneRunningOnFailure
	case "stop_on_failure":
		return PruneStopOnFailure
	case "always":
		return PruneAlways
	default:
		if log != nil {
			log.Warn("unrecognized DOCKERTEST_PRUNE value, defaulting to always", "value", v)
		}
		return PruneAlways
	}
}

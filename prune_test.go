package dockertest

import "testing"

func TestPruneStrategyFromEnv(t *testing.T) {
	cases := map[string]PruneStrategy{
		"never":              PruneNever,
		"running_on_failure": PruneRunningOnFailure,
		"stop_on_failure":    PruneStopOnFailure,
		"always":             PruneAlways,
		"garbage":            PruneAlways,
	}
	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv(pruneEnvVar, value)
			got := pruneStrategyFromEnv(nil)
			if got != want {
				t.Errorf("DOCKERTEST_PRUNE=%q => %v, want %v", value, got, want)
			}
		})
	}
}

func TestPruneStrategyDefaultsWhenUnset(t *testing.T) {
	got := pruneStrategyFromEnv(nil)
	if got != PruneAlways {
		t.Errorf("unset DOCKERTEST_PRUNE => %v, want PruneAlways", got)
	}
}

func TestSelfContainerIDFromEnv(t *testing.T) {
	if _, ok := selfContainerID(); ok {
		t.Fatal("expected no self container id by default")
	}
	t.Setenv(selfContainerEnvVar, "abc123")
	id, ok := selfContainerID()
	if !ok || id != "abc123" {
		t.Fatalf("selfContainerID() = (%q, %v), want (\"abc123\", true)", id, ok)
	}
}

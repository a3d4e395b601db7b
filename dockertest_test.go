package dockertest

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeT is a minimal TestingT that records Fatalf calls instead of
// aborting the goroutine, so a test can assert on the message.
type fakeT struct {
	fatalMsg string
}

func (f *fakeT) Helper() {}
func (f *fakeT) Fatalf(format string, args ...any) {
	f.fatalMsg = fmt.Sprintf(format, args...)
}

func TestRunContextHappyPathInvokesBodyAndTearsDown(t *testing.T) {
	api := newFakeDocker()
	dt := New().WithDockerAPI(api).WithLogger(nil)
	dt.AddComposition(NewComposition("nginx").WithHandle("web"))

	var sawHandle *RunningContainer
	err := dt.RunContext(context.Background(), &fakeT{}, func(ops Operations) {
		sawHandle = ops.Handle("web")
	})
	if err != nil {
		t.Fatalf("RunContext: %v", err)
	}
	if sawHandle == nil {
		t.Fatal("test body never observed a resolved handle")
	}
	if len(api.removed) != 1 {
		t.Fatalf("removed containers = %d, want 1", len(api.removed))
	}
	if len(api.removedNets) != 1 {
		t.Fatalf("removed networks = %d, want 1", len(api.removedNets))
	}
}

func TestRunContextSurfacesIgniteFailureAndCleansUp(t *testing.T) {
	api := newFakeDocker()
	api.failCreateSubstr = "bad"
	dt := New().WithDockerAPI(api).WithLogger(nil)
	dt.AddComposition(NewComposition("nginx").WithHandle("good"))
	dt.AddComposition(NewComposition("bad-image").WithHandle("bad"))

	err := dt.RunContext(context.Background(), &fakeT{}, func(Operations) {
		t.Fatal("test body must not run when ignite failed")
	})
	if err == nil {
		t.Fatal("expected RunContext to return the ignite failure")
	}
	var dte *DockerTestError
	if !errors.As(err, &dte) {
		t.Fatalf("error is not a *DockerTestError: %v", err)
	}
	if len(api.removedNets) != 1 {
		t.Fatal("expected the network to be torn down after an ignite failure")
	}
}

func TestRunPanicsAfterTeardownPreservingPayload(t *testing.T) {
	api := newFakeDocker()
	dt := New().WithDockerAPI(api).WithLogger(nil)
	dt.AddComposition(NewComposition("nginx").WithHandle("web"))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic to propagate from the test body")
		}
		if r != "boom" {
			t.Fatalf("panic payload = %v, want \"boom\"", r)
		}
		if len(api.removed) != 1 {
			t.Fatal("teardown must still run before the panic propagates")
		}
	}()

	dt.Run(&fakeT{}, func(ops Operations) {
		panic("boom")
	})
}

func TestRunFailsTWhenEngineErrorsOutsideTestBody(t *testing.T) {
	api := newFakeDocker()
	api.failCreateSubstr = "bad"
	dt := New().WithDockerAPI(api).WithLogger(nil)
	dt.AddComposition(NewComposition("bad-image").WithHandle("bad"))

	ft := &fakeT{}
	dt.Run(ft, func(Operations) {
		t.Fatal("test body must not run")
	})
	if ft.fatalMsg == "" {
		t.Fatal("expected Run to call t.Fatalf on an engine-level error")
	}
}

func TestRunContextWithNoCompositionsStillCreatesAndTearsDownNetwork(t *testing.T) {
	api := newFakeDocker()
	dt := New().WithDockerAPI(api).WithLogger(nil)

	called := false
	err := dt.RunContext(context.Background(), &fakeT{}, func(Operations) { called = true })
	if err != nil {
		t.Fatalf("RunContext: %v", err)
	}
	if !called {
		t.Fatal("test body must still run with zero compositions")
	}
	if len(api.networks) != 1 || len(api.removedNets) != 1 {
		t.Fatalf("networks created/removed = %d/%d, want 1/1", len(api.networks), len(api.removedNets))
	}
	if len(api.created) != 0 || len(api.removed) != 0 {
		t.Fatal("an empty batch must create and remove nothing besides the network")
	}
}

func TestNamedVolumeSuffixingSharesNameAcrossCompositions(t *testing.T) {
	api := newFakeDocker()
	dt := New().WithDockerAPI(api).WithLogger(nil)
	db := NewComposition("postgres").WithHandle("db").WithNamedVolume("data", "/var/lib/data")
	other := NewComposition("sidecar").WithHandle("sidecar").WithNamedVolume("data", "/mnt/data")
	dt.AddComposition(db)
	dt.AddComposition(other)

	err := dt.RunContext(context.Background(), &fakeT{}, func(Operations) {})
	if err != nil {
		t.Fatalf("RunContext: %v", err)
	}

	if len(api.volumesMade) != 1 {
		t.Fatalf("volumes created = %d, want 1 (same original name must share the suffixed volume)", len(api.volumesMade))
	}
	if db.namedVolumes[0].volumeID != other.namedVolumes[0].volumeID {
		t.Fatalf("suffixed volume names diverged: %q vs %q", db.namedVolumes[0].volumeID, other.namedVolumes[0].volumeID)
	}
}

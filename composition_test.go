package dockertest

import "testing"

func TestNewCompositionDefaultsHandleToRepository(t *testing.T) {
	c := NewComposition("nginx")
	if c.handle != "nginx" {
		t.Fatalf("handle = %q, want %q", c.handle, "nginx")
	}
}

func TestWithHandleOverridesDefault(t *testing.T) {
	c := NewComposition("nginx").WithHandle("web")
	if c.handle != "web" {
		t.Fatalf("handle = %q, want %q", c.handle, "web")
	}
	if c.repository != "nginx" {
		t.Fatalf("repository = %q, want %q (handle override must not touch the image)", c.repository, "nginx")
	}
}

func TestWithNamedVolumeAccumulates(t *testing.T) {
	c := NewComposition("postgres").
		WithNamedVolume("data", "/var/lib/postgresql/data").
		WithNamedVolume("conf", "/etc/postgresql")
	if len(c.namedVolumes) != 2 {
		t.Fatalf("namedVolumes = %d, want 2", len(c.namedVolumes))
	}
}

func TestAsStaticExternalMarksComposition(t *testing.T) {
	c := NewComposition("ignored").AsStaticExternal("abc123")
	if !c.isStaticExternal() {
		t.Fatal("expected isStaticExternal() to be true")
	}
}

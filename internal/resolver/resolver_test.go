package resolver

import (
	"strings"
	"testing"
)

type Dataset struct{}

func TestResolveRegisteredName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("Snapshot", "app/models.Snapshot"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, name := range []string{"Snapshot", "snapshot", "SNAPSHOT"} {
		got, err := r.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if got != "app/models.Snapshot" {
			t.Errorf("Resolve(%q) = %q, want app/models.Snapshot", name, got)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register("Snapshot", "app/models.Snapshot")
	_, err := r.Resolve("missing")
	if err == nil {
		t.Fatal("expected error for unknown entity")
	}
	if !strings.Contains(err.Error(), "snapshot") {
		t.Errorf("error should list known entities, got %q", err)
	}
}

func TestRegisterConflict(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("Snapshot", "app/models.Snapshot"); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("snapshot", "other/pkg.Snapshot"); err == nil {
		t.Error("conflicting registration should fail")
	}
	// identical re-registration is idempotent
	if err := r.Register("Snapshot", "app/models.Snapshot"); err != nil {
		t.Errorf("idempotent re-registration failed: %v", err)
	}
}

func TestRegisterType(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterType(&Dataset{}); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	got, err := r.Resolve("dataset")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasSuffix(got, "internal/resolver.Dataset") {
		t.Errorf("qualified identifier = %q, want package path + type name", got)
	}
}

func TestResolveQualifiedName(t *testing.T) {
	r := NewRegistry()
	r.Register("Snapshot", "app/models.Snapshot")
	got, err := r.Resolve("app/models.Snapshot")
	if err != nil {
		t.Fatalf("Resolve qualified: %v", err)
	}
	if got != "app/models.Snapshot" {
		t.Errorf("got %q", got)
	}
}

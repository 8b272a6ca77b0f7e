// Package resolver maps short, lowercased entity names to fully-qualified
// type identifiers using registered type metadata. It is pure lookup glue:
// the registry is populated once at startup, resolution never touches I/O.
package resolver

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Entity is one registered mapping from a short name to its qualified
// identifier.
type Entity struct {
	Name      string
	Qualified string
}

// Registry holds entity metadata for name resolution.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]string // lower-cased short name -> qualified identifier
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]string)}
}

// Register adds a short name for a fully-qualified identifier. Re-registering
// the same name with a different identifier is rejected.
func (r *Registry) Register(name, qualified string) error {
	if name == "" || qualified == "" {
		return fmt.Errorf("entity name and qualified identifier must not be empty")
	}
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entities[key]; ok && existing != qualified {
		return fmt.Errorf("entity %q already registered as %s", name, existing)
	}
	r.entities[key] = qualified
	return nil
}

// RegisterType derives the short name and qualified identifier from a Go
// type's metadata: the lower-cased type name maps to "pkgpath.TypeName".
func (r *Registry) RegisterType(v any) error {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return fmt.Errorf("cannot register unnamed type %v", reflect.TypeOf(v))
	}
	qualified := t.Name()
	if t.PkgPath() != "" {
		qualified = t.PkgPath() + "." + t.Name()
	}
	return r.Register(t.Name(), qualified)
}

// Resolve returns the fully-qualified identifier for a short name,
// case-insensitively.
func (r *Registry) Resolve(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if qualified, ok := r.entities[strings.ToLower(name)]; ok {
		return qualified, nil
	}
	// a qualified or partially-qualified name resolves to itself when its
	// terminal segment is registered and agrees
	if i := strings.LastIndex(name, "."); i >= 0 {
		short := strings.ToLower(name[i+1:])
		if qualified, ok := r.entities[short]; ok && strings.EqualFold(qualified, name) {
			return qualified, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q (known: %s)", name, strings.Join(r.names(), ", "))
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

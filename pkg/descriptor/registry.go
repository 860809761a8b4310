package descriptor

import (
	"errors"
	"strings"
	"sync"
)

// Registry collects descriptors process-wide. Discovery results are memoized
// per lowercased document name and never invalidated: registration is
// expected to finish before the first generation call, matching the
// assumption that discovery is stable for the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	types []Type
	memo  map[string][]Type
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{memo: make(map[string][]Type)}
}

// Register adds a descriptor. Registration order is preserved; it drives the
// deterministic iteration order downstream policies depend on.
func (r *Registry) Register(t Type) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("descriptor: type name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, t)
	return nil
}

// ForDocument returns the descriptors participating in the named document, in
// registration order. Types with an explicit document filter that does not
// match (case-insensitively) are skipped entirely.
func (r *Registry) ForDocument(name string) []Type {
	key := strings.ToLower(name)

	r.mu.RLock()
	if cached, ok := r.memo[key]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.memo[key]; ok {
		return cached
	}
	var matched []Type
	for _, t := range r.types {
		if matchesDocument(t, key) {
			matched = append(matched, t)
		}
	}
	r.memo[key] = matched
	return matched
}

func matchesDocument(t Type, lowered string) bool {
	if len(t.Documents) == 0 {
		return true
	}
	for _, doc := range t.Documents {
		if strings.ToLower(doc) == lowered {
			return true
		}
	}
	return false
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// Register adds a descriptor to the default registry.
func Register(t Type) error {
	return Default.Register(t)
}

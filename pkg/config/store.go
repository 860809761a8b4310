package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store maps document names to their immutable options. Names match
// case-insensitively; keys are normalized to lowercase at registration.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Options
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Options)}
}

// Add registers options under their document name.
func (s *Store) Add(opts *Options) error {
	if opts == nil || opts.Name == "" {
		return fmt.Errorf("config: options without a name: %w", ErrDocumentNotFound)
	}
	key := strings.ToLower(opts.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[key]; exists {
		return fmt.Errorf("config: document %q already registered", key)
	}
	s.docs[key] = opts
	return nil
}

// Get returns the options for name, matching case-insensitively.
func (s *Store) Get(name string) (*Options, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	s.mu.RLock()
	defer s.mu.RUnlock()
	opts, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("config: document %q: %w", name, ErrDocumentNotFound)
	}
	return opts, nil
}

// Names returns the registered document names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

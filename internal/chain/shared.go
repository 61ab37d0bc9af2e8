package chain

import "sync"

// SharedObjects is a registry of configuration-time singletons shared
// between configurers and filters. Objects are published once during
// startup and read-only afterwards.
type SharedObjects struct {
	mu      sync.RWMutex
	objects map[string]any
}

// NewSharedObjects creates an empty registry.
func NewSharedObjects() *SharedObjects {
	return &SharedObjects{objects: make(map[string]any)}
}

// Set publishes an object under the key unless one is already present.
func (s *SharedObjects) Set(key string, obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		s.objects[key] = obj
	}
}

// Get returns the object stored under key, or nil.
func (s *SharedObjects) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key]
}

// SharedAs returns the object stored under key if it has type T.
func SharedAs[T any](s *SharedObjects, key string) (T, bool) {
	v, ok := s.Get(key).(T)
	return v, ok
}

// ResolveShared returns, in priority order: the explicitly configured
// instance, the registry entry, or a newly created default. Whatever wins
// is published back to the registry so later configurers see the same
// instance. A nil creator means the object is optional; the zero value is
// returned without publishing.
func ResolveShared[T comparable](s *SharedObjects, key string, existing T, creator func() (T, error)) (T, error) {
	var zero T
	result := existing
	if result == zero {
		if v, ok := SharedAs[T](s, key); ok {
			result = v
		}
	}
	if result == zero {
		if creator == nil {
			return zero, nil
		}
		created, err := creator()
		if err != nil {
			return zero, err
		}
		result = created
	}
	s.Set(key, result)
	return result, nil
}

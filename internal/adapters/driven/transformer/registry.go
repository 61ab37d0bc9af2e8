// Package transformer holds the registry of SAML transformer
// implementations. Implementations register themselves from an init
// function; importing an implementation package is what makes it
// available, so a missing import surfaces as a descriptive configuration
// error instead of a silent fallback.
package transformer

import (
	"fmt"
	"sync"

	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// Implementation describes a registered SAML protocol engine. NewValidator
// receives the resolved transformer so validators can share its
// configuration and caches.
type Implementation struct {
	Name           string
	NewTransformer func() (ports.Transformer, error)
	NewValidator   func(t ports.Transformer) (ports.Validator, error)
}

var (
	mu       sync.RWMutex
	registry []Implementation
)

// Register makes an implementation available for default resolution.
// Registering two implementations with the same name panics, mirroring
// other Go registration surfaces (database/sql, image formats).
func Register(impl Implementation) {
	if impl.Name == "" || impl.NewTransformer == nil || impl.NewValidator == nil {
		panic("transformer: Register called with incomplete implementation")
	}
	mu.Lock()
	defer mu.Unlock()
	for _, existing := range registry {
		if existing.Name == impl.Name {
			panic(fmt.Sprintf("transformer: implementation %q registered twice", impl.Name))
		}
	}
	registry = append(registry, impl)
}

// Default returns the preferred registered implementation. "crewjam" wins
// when present; otherwise the first registered implementation is used.
// Returns domain.ErrNoTransformer when nothing is registered.
func Default() (Implementation, error) {
	mu.RLock()
	defer mu.RUnlock()
	if len(registry) == 0 {
		return Implementation{}, domain.ErrNoTransformer
	}
	for _, impl := range registry {
		if impl.Name == "crewjam" {
			return impl, nil
		}
	}
	return registry[0], nil
}

// Lookup returns the implementation with the given name.
func Lookup(name string) (Implementation, error) {
	mu.RLock()
	defer mu.RUnlock()
	for _, impl := range registry {
		if impl.Name == name {
			return impl, nil
		}
	}
	return Implementation{}, fmt.Errorf("transformer: implementation %q is not registered", name)
}

// Reset removes all registered implementations. For tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
}

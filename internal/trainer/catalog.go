// Package trainer holds the catalog of named training functions the
// runtime can dispatch. Trainers receive raw JSON parameters and return an
// opaque artifact; the registry and runner never look inside either.
package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/flaviabeo/caikit/internal/domain"
)

// Func is a registered training function.
type Func func(ctx context.Context, params json.RawMessage) (any, error)

// Catalog maps trainer names to training functions. Registration normally
// happens once at startup, but the catalog is safe for concurrent use so
// hosts may extend it at runtime.
type Catalog struct {
	mu       sync.RWMutex
	trainers map[string]Func
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		trainers: make(map[string]Func),
	}
}

// Register adds a trainer under a unique name.
func (c *Catalog) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("trainer name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("trainer %q: function must not be nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.trainers[name]; ok {
		return fmt.Errorf("%w: %s", domain.ErrTrainerAlreadyRegistered, name)
	}
	c.trainers[name] = fn
	return nil
}

// Resolve looks a trainer up by name.
func (c *Catalog) Resolve(name string) (Func, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.trainers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTrainerNotFound, name)
	}
	return fn, nil
}

// Names returns the registered trainer names sorted alphabetically.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.trainers))
	for name := range c.trainers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Typed adapts a strongly typed training function into a Func by decoding
// the submitted JSON parameters into P. Absent parameters decode into P's
// zero value.
func Typed[P any](fn func(ctx context.Context, params P) (any, error)) Func {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("decode training parameters: %w", err)
			}
		}
		return fn(ctx, params)
	}
}

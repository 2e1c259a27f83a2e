// Package registry binds trainable names to runnable trainables. It is the
// lookup the normalizer consults when a run references its trainable by
// name rather than by value.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tessera-ml/tessera-go/internal/domain"
)

var ErrNotRegistered = errors.New("trainable is not registered")

type entry struct {
	kind    domain.TrainableKind
	fn      domain.TrainFunc
	factory func() domain.ClassTrainable
}

// Registry is a thread-safe name -> trainable map. A name is bound once;
// re-registering it is an error, never a silent replace.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// RegisterFunc binds name to a function trainable.
func (r *Registry) RegisterFunc(name string, fn domain.TrainFunc) error {
	if fn == nil {
		return errors.New("train func is required")
	}
	return r.register(name, entry{kind: domain.TrainableFunction, fn: fn})
}

// RegisterClass binds name to a class trainable factory. The factory is
// invoked once per run by the execution layer; the registry itself never
// calls it.
func (r *Registry) RegisterClass(name string, factory func() domain.ClassTrainable) error {
	if factory == nil {
		return errors.New("class trainable factory is required")
	}
	return r.register(name, entry{kind: domain.TrainableClass, factory: factory})
}

func (r *Registry) register(name string, e entry) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("trainable name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("trainable %q is already registered", name)
	}
	r.entries[name] = e
	return nil
}

// TrainableKind implements domain.KindResolver.
func (r *Registry) TrainableKind(name string) (domain.TrainableKind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.TrimSpace(name)]
	if !ok {
		return "", fmt.Errorf("trainable %q: %w", name, ErrNotRegistered)
	}
	return e.kind, nil
}

// Func returns the function trainable bound to name.
func (r *Registry) Func(name string) (domain.TrainFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("trainable %q: %w", name, ErrNotRegistered)
	}
	if e.kind != domain.TrainableFunction {
		return nil, fmt.Errorf("trainable %q is a %s trainable", name, e.kind)
	}
	return e.fn, nil
}

// NewClass instantiates the class trainable bound to name.
func (r *Registry) NewClass(name string) (domain.ClassTrainable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("trainable %q: %w", name, ErrNotRegistered)
	}
	if e.kind != domain.TrainableClass {
		return nil, fmt.Errorf("trainable %q is a %s trainable", name, e.kind)
	}
	return e.factory(), nil
}

// Names lists the registered trainable names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package registry holds the process-wide convention state: which
// conventions are registered by name and which one is currently active.
//
// The registry is read on every intercepted create call and written only
// by explicit Register/Activate calls, so it is guarded by an RWMutex.
// Scoped activation (Use, WithActive) restores the prior pointer on every
// exit path, which keeps one task's temporary activation from leaking
// into the rest of the process once the scope ends; concurrent scopes on
// a shared registry still need external coordination.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/matthiasprobst/hdfconv/internal/convention"
)

// NoopConventionName is the name of the built-in pass-through convention
// the registry always contains. Activating it (or activating the empty
// name) disables all convention behavior.
const NoopConventionName = "h5py"

// UnknownConventionError reports activation of a name that was never
// registered.
type UnknownConventionError struct {
	// Name is the convention name that was requested.
	Name string
	// Registered lists the names available at the time.
	Registered []string
}

func (e *UnknownConventionError) Error() string {
	return fmt.Sprintf("convention %q is not registered (registered: %v)", e.Name, e.Registered)
}

// Registry maps convention names to conventions and tracks the active
// one. The zero value is not usable; call New.
type Registry struct {
	mu          sync.RWMutex
	conventions map[string]*convention.Convention
	active      *convention.Convention
}

// New creates a registry seeded with the built-in no-op convention, which
// is also the initially active one.
func New() *Registry {
	noop, err := convention.New(NoopConventionName, nil)
	if err != nil {
		panic(fmt.Sprintf("building built-in no-op convention: %v", err))
	}
	return &Registry{
		conventions: map[string]*convention.Convention{NoopConventionName: noop},
		active:      noop,
	}
}

// Register adds a convention under its name. Registering does not
// activate. A convention registered under an existing name replaces the
// previous one; re-loading a convention document is a supported workflow.
func (r *Registry) Register(c *convention.Convention) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conventions[c.Name()] = c
}

// Activate makes the named convention the active one. The empty name
// activates the built-in no-op convention (pass-through behavior).
// Activating an unregistered name fails with UnknownConventionError and
// leaves the active pointer untouched.
func (r *Registry) Activate(name string) error {
	if name == "" {
		name = NoopConventionName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conventions[name]
	if !ok {
		return &UnknownConventionError{Name: name, Registered: r.namesLocked()}
	}
	r.active = c
	return nil
}

// ActivateConvention registers and activates in one step, for conventions
// held as objects rather than names.
func (r *Registry) ActivateConvention(c *convention.Convention) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conventions[c.Name()] = c
	r.active = c
}

// Active returns the currently active convention. It never returns nil;
// "no convention" is represented by the built-in no-op convention.
func (r *Registry) Active() *convention.Convention {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Get returns a registered convention by name.
func (r *Registry) Get(name string) (*convention.Convention, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conventions[name]
	if !ok {
		return nil, &UnknownConventionError{Name: name, Registered: r.namesLocked()}
	}
	return c, nil
}

// List returns the registered convention names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// namesLocked requires r.mu to be held.
func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.conventions))
	for n := range r.conventions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Use activates the named convention and returns a restore function that
// reinstates the previously active convention. Callers defer the restore,
// which then runs on success, error, and panic alike.
func (r *Registry) Use(name string) (func(), error) {
	r.mu.Lock()
	prior := r.active
	if name == "" {
		name = NoopConventionName
	}
	c, ok := r.conventions[name]
	if !ok {
		err := &UnknownConventionError{Name: name, Registered: r.namesLocked()}
		r.mu.Unlock()
		return nil, err
	}
	r.active = c
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.active = prior
			r.mu.Unlock()
		})
	}, nil
}

// WithActive runs fn with the named convention active and restores the
// prior active convention afterwards, regardless of how fn exits.
func (r *Registry) WithActive(name string, fn func() error) error {
	restore, err := r.Use(name)
	if err != nil {
		return err
	}
	defer restore()
	return fn()
}

// defaultRegistry is the process-wide registry behind the package-level
// helpers.
var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a convention to the process-wide registry.
func Register(c *convention.Convention) { defaultRegistry.Register(c) }

// Activate switches the process-wide active convention.
func Activate(name string) error { return defaultRegistry.Activate(name) }

// Active returns the process-wide active convention.
func Active() *convention.Convention { return defaultRegistry.Active() }

// List returns the names registered in the process-wide registry.
func List() []string { return defaultRegistry.List() }

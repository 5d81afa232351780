// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// Built-in backend priorities.
const (
	PriorityWindow    = 100
	PriorityOffscreen = 10
)

// TargetFactory builds a Target from opts. It returns an error when opts
// lack what the backend needs.
type TargetFactory func(opts Options) (Target, error)

// Options carries what a backend may need to build a Target.
type Options struct {
	// Window is the window surface to present to. Nil for headless runs.
	Window hal.Surface
}

// RegistryEntry describes one registered backend.
type RegistryEntry struct {
	Name      string
	Priority  int // higher is tried first
	Factory   TargetFactory
	Available func() bool
}

// Registry maps backend names to target factories.
//
// Extra backends register themselves from init:
//
//	func init() {
//	    surface.Register("drm", 50, drmFactory, drmAvailable)
//	}
type Registry struct {
	mu      sync.RWMutex
	entries map[string]RegistryEntry
}

var globalRegistry = NewRegistry()

// NewRegistry returns an empty registry. Most callers use the package
// level functions, which share one registry holding the built-ins.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]RegistryEntry)}
}

// Register adds name to the shared registry, replacing any previous entry.
// A nil available means always available.
func Register(name string, priority int, factory TargetFactory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes name from the shared registry.
func Unregister(name string) { globalRegistry.Unregister(name) }

// List returns the registered names, highest priority first.
func List() []string { return globalRegistry.List() }

// Available is List restricted to backends usable on this system.
func Available() []string { return globalRegistry.Available() }

// Get returns a copy of the entry for name.
func Get(name string) (RegistryEntry, bool) { return globalRegistry.Get(name) }

// NewTarget builds a target from the first available backend that accepts
// opts.
func NewTarget(opts Options) (Target, error) { return globalRegistry.NewTarget(opts) }

// NewTargetByName builds a target from the named backend.
func NewTargetByName(name string, opts Options) (Target, error) {
	return globalRegistry.NewTargetByName(name, opts)
}

func (r *Registry) Register(name string, priority int, factory TargetFactory, available func() bool) {
	if available == nil {
		available = func() bool { return true }
	}
	r.mu.Lock()
	r.entries[name] = RegistryEntry{Name: name, Priority: priority, Factory: factory, Available: available}
	r.mu.Unlock()
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()
}

func (r *Registry) List() []string      { return names(r.ranked(false)) }
func (r *Registry) Available() []string { return names(r.ranked(true)) }

func (r *Registry) Get(name string) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// NewTarget tries the available backends in priority order. If every
// factory fails, the errors are joined.
func (r *Registry) NewTarget(opts Options) (Target, error) {
	candidates := r.ranked(true)
	if len(candidates) == 0 {
		return nil, ErrNoBackendAvailable
	}
	var errs []error
	for _, e := range candidates {
		t, err := e.Factory(opts)
		if err == nil {
			Logger().Debug("surface: target selected", "backend", e.Name)
			return t, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
	}
	return nil, errors.Join(errs...)
}

func (r *Registry) NewTargetByName(name string, opts Options) (Target, error) {
	e, ok := r.Get(name)
	switch {
	case !ok:
		return nil, &BackendNotFoundError{Name: name}
	case !e.Available():
		return nil, &BackendUnavailableError{Name: name}
	}
	return e.Factory(opts)
}

// ranked snapshots the entries by descending priority, then name.
func (r *Registry) ranked(onlyAvailable bool) []RegistryEntry {
	r.mu.RLock()
	out := make([]RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	if onlyAvailable {
		out = slices.DeleteFunc(out, func(e RegistryEntry) bool { return !e.Available() })
	}
	slices.SortFunc(out, func(a, b RegistryEntry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func names(entries []RegistryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Registry errors.
var (
	// ErrNoBackendAvailable is returned when no registered backend is
	// available.
	ErrNoBackendAvailable = errors.New("surface: no backend available")

	// ErrNoWindow is returned by the window backend when Options.Window
	// is nil.
	ErrNoWindow = errors.New("surface: no window surface")
)

// BackendNotFoundError reports an unregistered backend name.
type BackendNotFoundError struct{ Name string }

func (e *BackendNotFoundError) Error() string { return "surface: backend not found: " + e.Name }

// BackendUnavailableError reports a registered backend that cannot run
// here.
type BackendUnavailableError struct{ Name string }

func (e *BackendUnavailableError) Error() string { return "surface: backend unavailable: " + e.Name }

func init() {
	Register("window", PriorityWindow, func(opts Options) (Target, error) {
		if opts.Window == nil {
			return nil, ErrNoWindow
		}
		return NewHALTarget(opts.Window)
	}, nil)
	Register("offscreen", PriorityOffscreen, func(Options) (Target, error) {
		return NewOffscreen(), nil
	}, nil)
}

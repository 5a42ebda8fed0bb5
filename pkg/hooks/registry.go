package hooks

import (
	"fmt"
	"sort"
	"sync"
)

// Hook names as they appear in phx-hook attributes.
const (
	NameAutosave           = "Autosave"
	NameSectionCategory    = "UpdateSectionCategory"
	NameNotificationToggle = "NotificationToggle"
	NameExport             = "Export"
	NamePrintToPDF         = "PrintToPDF"
	NameGeneratePDF        = "GeneratePDF"
)

// Registry stores hook factories by name. Each name has exactly one
// factory; registering it twice is an error.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in hooks. The two PDF
// button names of the page markup map to the export hook.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NameAutosave, NewAutosave)
	r.MustRegister(NameSectionCategory, NewSectionCategory)
	r.MustRegister(NameNotificationToggle, NewNotificationToggle)
	r.MustRegister(NameExport, NewExport)
	r.MustRegister(NamePrintToPDF, NewExport)
	r.MustRegister(NameGeneratePDF, NewExport)
	return r
}

// Register adds a factory by name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("hooks: hook name is required")
	}
	if factory == nil {
		return fmt.Errorf("hooks: factory for %q is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("hooks: hook %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get retrieves a factory by name.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}
	return factory, nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

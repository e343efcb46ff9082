package atom

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry maps class names to classes and creates atoms with shared
// options. It is safe for concurrent use; the atoms it creates are not.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class

	logger   *zap.Logger
	maxDepth int
	instr    Instrumentation
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger handed to created atoms.
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryMaxDepth sets the nesting limit of created atoms.
func WithRegistryMaxDepth(depth int) RegistryOption {
	return func(r *Registry) {
		if depth >= 0 {
			r.maxDepth = depth
		}
	}
}

// WithRegistryInstrumentation sets the instrumentation of created atoms.
func WithRegistryInstrumentation(instr Instrumentation) RegistryOption {
	return func(r *Registry) {
		if instr != nil {
			r.instr = instr
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		classes:  make(map[string]*Class),
		logger:   zap.NewNop(),
		maxDepth: DefaultMaxDepth,
		instr:    nopInstrumentation{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a class. The class is sealed.
func (r *Registry) Register(c *Class) error {
	if c == nil {
		return fmt.Errorf("%w: nil class", ErrInvalidClass)
	}
	if err := c.Seal(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[c.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, c.name)
	}
	r.classes[c.name] = c
	r.logger.Debug("class registered", zap.String("class", c.name), zap.Int("members", len(c.members)))
	return nil
}

// Replace adds or replaces a class. Existing atoms keep their class.
// It reports whether a class was replaced.
func (r *Registry) Replace(c *Class) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("%w: nil class", ErrInvalidClass)
	}
	if err := c.Seal(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.classes[c.name]
	r.classes[c.name] = c
	r.logger.Debug("class replaced", zap.String("class", c.name), zap.Bool("existed", existed))
	return existed, nil
}

// Unregister removes a class and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.classes[name]
	delete(r.classes, name)
	return ok
}

// Class returns the named class.
func (r *Registry) Class(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	return c, nil
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// New creates an atom of the named class with the registry's options,
// followed by opts.
func (r *Registry) New(name string, opts ...Option) (*Atom, error) {
	c, err := r.Class(name)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(r.logger.With(zap.String("class", name))),
		WithMaxDepth(r.maxDepth),
		WithInstrumentation(r.instr),
	}
	return New(c, append(base, opts...)...)
}

package atom

import (
	"fmt"
	"sync/atomic"

	"github.com/seanpm2001/atom/internal/dispatch"
)

// Class is an ordered set of members defining the slot layout of its atoms.
//
// A class is sealed when its first atom is created. After that its members,
// dependencies and signal wiring can no longer change.
type Class struct {
	name    string
	members []*Member
	byName  map[string]*Member

	// static dependency adjacency, indexed by source slot
	dependents [][]int
	emits      [][]string

	sealed     bool
	dispatcher *dispatch.Dispatcher

	instances atomic.Int64
	live      atomic.Int64
}

// NewClass creates a class from members. Member i must carry slot index i,
// or -1 to have index i assigned. Names must be unique.
func NewClass(name string, members ...*Member) (*Class, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty class name", ErrInvalidClass)
	}

	c := &Class{
		name:       name,
		members:    make([]*Member, len(members)),
		byName:     make(map[string]*Member, len(members)),
		dependents: make([][]int, len(members)),
		emits:      make([][]string, len(members)),
		dispatcher: dispatch.New(),
	}

	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("%w: %s has a nil member at index %d", ErrInvalidClass, name, i)
		}
		if m.class != nil {
			return nil, fmt.Errorf("%w: member %s is already bound", ErrInvalidClass, m)
		}
		if m.name == "" {
			return nil, fmt.Errorf("%w: %s has an unnamed member at index %d", ErrInvalidClass, name, i)
		}
		if _, dup := c.byName[m.name]; dup {
			return nil, fmt.Errorf("%w: %s has duplicate member %q", ErrInvalidClass, name, m.name)
		}
		if m.index != -1 && m.index != i {
			return nil, fmt.Errorf("%w: %s.%s has slot index %d at position %d",
				ErrInvalidClass, name, m.name, m.index, i)
		}
		c.members[i] = m
		c.byName[m.name] = m
	}

	for i, m := range c.members {
		m.index = i
		m.class = c
	}
	return c, nil
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Len returns the number of members (and slots).
func (c *Class) Len() int { return len(c.members) }

// Members returns the members in slot order.
func (c *Class) Members() []*Member {
	return append([]*Member(nil), c.members...)
}

// Member returns the member with the given name.
func (c *Class) Member(name string) (*Member, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// MemberAt returns the member bound to slot i.
func (c *Class) MemberAt(i int) (*Member, bool) {
	if i < 0 || i >= len(c.members) {
		return nil, false
	}
	return c.members[i], true
}

// Sealed reports whether the class has been sealed.
func (c *Class) Sealed() bool { return c.sealed }

// DependOn declares that a successful write to source invalidates each
// dependent member. Dependents with observers are recomputed and notified
// with a ChangeProperty change.
func (c *Class) DependOn(source string, dependents ...string) error {
	if c.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, c.name)
	}
	src, ok := c.byName[source]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMember, c.name, source)
	}
	for _, name := range dependents {
		d, ok := c.byName[name]
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownMember, c.name, name)
		}
		if d == src {
			return &CycleError{Class: c.name, Path: []string{source, source}}
		}
		if !containsInt(c.dependents[src.index], d.index) {
			c.dependents[src.index] = append(c.dependents[src.index], d.index)
		}
	}
	return nil
}

// EmitOn declares that a successful write to source emits each signal
// with the Change as its only argument.
func (c *Class) EmitOn(source string, signals ...string) error {
	if c.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, c.name)
	}
	src, ok := c.byName[source]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMember, c.name, source)
	}
	for _, name := range signals {
		if m, ok := c.byName[name]; ok && m.access.kind != AccessSignal {
			return fmt.Errorf("%w: %s.%s is not a signal", ErrInvalidSignal, c.name, name)
		}
		c.emits[src.index] = append(c.emits[src.index], name)
	}
	return nil
}

// Dependents returns the names of members invalidated by writes to source.
func (c *Class) Dependents(source string) []string {
	src, ok := c.byName[source]
	if !ok {
		return nil
	}
	names := make([]string, len(c.dependents[src.index]))
	for i, d := range c.dependents[src.index] {
		names[i] = c.members[d].name
	}
	return names
}

// Seal validates the dependency graph and freezes the class. It is called
// implicitly by the first New. Sealing twice is a no-op.
func (c *Class) Seal() error {
	if c.sealed {
		return nil
	}
	if path := c.findCycle(); path != nil {
		return &CycleError{Class: c.name, Path: path}
	}
	c.sealed = true
	return nil
}

// findCycle returns the member names along a dependency cycle, or nil.
func (c *Class) findCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(c.members))
	var stack []int
	var cycle []string

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = grey
		stack = append(stack, i)
		for _, d := range c.dependents[i] {
			switch color[d] {
			case grey:
				for j, s := range stack {
					if s == d {
						for _, k := range stack[j:] {
							cycle = append(cycle, c.members[k].name)
						}
						cycle = append(cycle, c.members[d].name)
						return true
					}
				}
			case white:
				if visit(d) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return false
	}

	for i := range c.members {
		if color[i] == white && visit(i) {
			return cycle
		}
	}
	return nil
}

// ClassStats reports instance counters and dispatch statistics.
type ClassStats struct {
	// Instances is the number of atoms created.
	Instances int64

	// Live is the number of atoms created and not destroyed.
	Live int64

	// Dispatch holds observer execution statistics for all atoms of the class.
	Dispatch dispatch.Stats
}

// Stats returns the class statistics.
func (c *Class) Stats() ClassStats {
	return ClassStats{
		Instances: c.instances.Load(),
		Live:      c.live.Load(),
		Dispatch:  c.dispatcher.Stats(),
	}
}

// String returns the class name.
func (c *Class) String() string { return c.name }

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

package decl

import (
	"errors"
	"fmt"

	"github.com/seanpm2001/atom/internal/atom"
)

// Builder assembles a class. Errors are collected and reported by Build.
type Builder struct {
	name    string
	members []*atom.Member
	deps    [][2]string
	emits   [][2]string
	static  []staticObserver
	errs    []error
}

type staticObserver struct {
	member string
	fn     atom.Observer
	opts   []atom.ObserveOption
}

// Define starts a class declaration.
func Define(name string) *Builder {
	return &Builder{name: name}
}

// Add appends members. Slot indices follow declaration order.
func (b *Builder) Add(members ...*atom.Member) *Builder {
	for _, m := range members {
		if m == nil {
			b.errs = append(b.errs, fmt.Errorf("%w: nil member in %s", atom.ErrInvalidClass, b.name))
			continue
		}
		if m.Index() != -1 {
			b.errs = append(b.errs, fmt.Errorf("%w: %s.%s already has slot index %d",
				atom.ErrInvalidClass, b.name, m.Name(), m.Index()))
			continue
		}
		b.members = append(b.members, m)
	}
	return b
}

// DependOn declares that writes to source invalidate dependents.
func (b *Builder) DependOn(source string, dependents ...string) *Builder {
	for _, d := range dependents {
		b.deps = append(b.deps, [2]string{source, d})
	}
	return b
}

// EmitOn declares that writes to source emit signals.
func (b *Builder) EmitOn(source string, signals ...string) *Builder {
	for _, s := range signals {
		b.emits = append(b.emits, [2]string{source, s})
	}
	return b
}

// Observe registers a static observer on the named member.
func (b *Builder) Observe(member string, fn atom.Observer, opts ...atom.ObserveOption) *Builder {
	b.static = append(b.static, staticObserver{member: member, fn: fn, opts: opts})
	return b
}

// Build creates and seals the class.
func (b *Builder) Build() (*atom.Class, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	c, err := atom.NewClass(b.name, b.members...)
	if err != nil {
		return nil, err
	}
	for _, d := range b.deps {
		if err := c.DependOn(d[0], d[1]); err != nil {
			return nil, err
		}
	}
	for _, e := range b.emits {
		if err := c.EmitOn(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	for _, s := range b.static {
		m, ok := c.Member(s.member)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", atom.ErrUnknownMember, b.name, s.member)
		}
		if _, err := m.AddStaticObserver(s.fn, s.opts...); err != nil {
			return nil, err
		}
	}
	if err := c.Seal(); err != nil {
		return nil, err
	}
	return c, nil
}

// Class declares a class from members with no dependencies.
func Class(name string, members ...*atom.Member) (*atom.Class, error) {
	return Define(name).Add(members...).Build()
}

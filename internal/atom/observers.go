package atom

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seanpm2001/atom/internal/dispatch"
)

// Observer is called with every change delivered to the member it was
// registered on. The change's Object is the notifying atom. Returning an
// error aborts the remaining observers of the pass.
type Observer func(change Change) error

// Handle identifies an observer registration. The zero Handle is invalid.
type Handle struct {
	member *Member
	id     uint64
	static bool
}

// Valid reports whether h refers to a registration.
func (h Handle) Valid() bool { return h.member != nil && h.id != 0 }

// Member returns the member the observer was registered on.
func (h Handle) Member() *Member { return h.member }

// ObserveOption configures an observer registration.
type ObserveOption func(*registration)

// WithChangeKinds restricts delivery to changes matching mask.
func WithChangeKinds(mask ChangeKind) ObserveOption {
	return func(r *registration) {
		r.kinds = mask
	}
}

type registration struct {
	id    uint64
	fn    Observer
	kinds ChangeKind
}

// Handle implements dispatch.Handler.
func (r *registration) Handle(event any) error {
	return r.fn(event.(Change))
}

func newRegistration(id uint64, fn Observer, opts []ObserveOption) *registration {
	r := &registration{id: id, fn: fn, kinds: ChangeAny}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// appendRegistration returns a new slice; published slices are never
// modified so an in-flight pass keeps its snapshot.
func appendRegistration(regs []*registration, r *registration) []*registration {
	out := make([]*registration, len(regs), len(regs)+1)
	copy(out, regs)
	return append(out, r)
}

func removeRegistration(regs []*registration, id uint64) ([]*registration, bool) {
	for i, r := range regs {
		if r.id == id {
			out := make([]*registration, 0, len(regs)-1)
			out = append(out, regs[:i]...)
			return append(out, regs[i+1:]...), true
		}
	}
	return regs, false
}

// AddStaticObserver registers fn for every atom of the member's class.
// Static observers run before instance observers.
func (m *Member) AddStaticObserver(fn Observer, opts ...ObserveOption) (Handle, error) {
	if fn == nil {
		return Handle{}, fmt.Errorf("%w: nil observer for %s", ErrInvalidClass, m)
	}
	m.nextStaticID++
	r := newRegistration(m.nextStaticID, fn, opts)
	m.staticObservers = appendRegistration(m.staticObservers, r)
	return Handle{member: m, id: r.id, static: true}, nil
}

// RemoveStaticObserver removes a static observer. It reports whether the
// registration was found.
func (m *Member) RemoveStaticObserver(h Handle) bool {
	if !h.static || h.member != m {
		return false
	}
	var ok bool
	m.staticObservers, ok = removeRegistration(m.staticObservers, h.id)
	return ok
}

// StaticObserverCount returns the number of static observers.
func (m *Member) StaticObserverCount() int { return len(m.staticObservers) }

// Observe registers fn for changes to the named member of this atom.
// Observers run in registration order.
func (a *Atom) Observe(name string, fn Observer, opts ...ObserveOption) (Handle, error) {
	m, err := a.member(name)
	if err != nil {
		return Handle{}, err
	}
	if fn == nil {
		return Handle{}, fmt.Errorf("%w: nil observer for %s", ErrInvalidClass, m)
	}

	if a.observers == nil {
		a.observers = make(map[int][]*registration)
	}
	a.nextID++
	r := newRegistration(a.nextID, fn, opts)
	a.observers[m.index] = appendRegistration(a.observers[m.index], r)
	return Handle{member: m, id: r.id}, nil
}

// Unobserve removes an observer registered with Observe. It reports
// whether the registration was found. A pass already in flight still
// calls the observer; later passes do not.
func (a *Atom) Unobserve(h Handle) bool {
	if a.destroyed || h.static || h.member == nil || h.member.class != a.class {
		return false
	}
	regs, ok := removeRegistration(a.observers[h.member.index], h.id)
	if !ok {
		return false
	}
	if len(regs) == 0 {
		delete(a.observers, h.member.index)
	} else {
		a.observers[h.member.index] = regs
	}
	return true
}

// HasObservers reports whether the named member has static or instance observers.
func (a *Atom) HasObservers(name string) bool {
	return a.ObserverCount(name) > 0
}

// ObserverCount returns the number of static and instance observers of the
// named member.
func (a *Atom) ObserverCount(name string) int {
	m, err := a.member(name)
	if err != nil {
		return 0
	}
	return len(m.staticObservers) + len(a.observers[m.index])
}

// observed reports whether recomputing m could be seen by anyone.
func (a *Atom) observed(m *Member) bool {
	return len(m.staticObservers) > 0 ||
		len(a.observers[m.index]) > 0 ||
		len(a.class.emits[m.index]) > 0
}

// dispatchChange runs the static then instance observers of m over a
// snapshot taken now.
func (a *Atom) dispatchChange(m *Member, change Change) error {
	static := m.staticObservers
	instance := a.observers[m.index]
	if len(static)+len(instance) == 0 {
		return nil
	}

	handlers := make([]dispatch.Handler, 0, len(static)+len(instance))
	for _, r := range static {
		if r.kinds&change.Kind != 0 {
			handlers = append(handlers, r)
		}
	}
	for _, r := range instance {
		if r.kinds&change.Kind != 0 {
			handlers = append(handlers, r)
		}
	}
	if len(handlers) == 0 {
		return nil
	}

	start := time.Now()
	pass := a.class.dispatcher.Run(change, handlers)
	a.instr.ObserversNotified(a.class.name, m.name, len(handlers), time.Since(start))

	if failed, ok := pass.Failure(); ok {
		return a.observerFailed(m.name, change, failed)
	}
	return nil
}

func (a *Atom) observerFailed(name string, change Change, r dispatch.Result) error {
	err := &ObserverError{
		Class:  a.class.name,
		Member: name,
		Change: change,
		Err:    r.Err,
	}
	panicked := r.Outcome == dispatch.Panicked
	if panicked {
		err.Panic = r.Panic
		err.Stack = r.Stack
	}

	a.instr.ObserverFailed(a.class.name, name, panicked)
	a.logger.Warn("observer failed",
		zap.String("class", a.class.name),
		zap.String("member", name),
		zap.String("id", a.id),
		zap.Stringer("kind", change.Kind),
		zap.Bool("panicked", panicked),
		zap.Error(err),
	)
	return err
}

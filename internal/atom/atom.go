package atom

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxDepth is the default limit on nested writes and notifications.
const DefaultMaxDepth = 256

// Atom is an instance of a Class.
//
// Every attribute lives in a slot addressed by the index of the member bound
// to it. Atoms are not safe for concurrent use.
type Atom struct {
	id    string
	class *Class
	slots []any

	// slot index -> registrations, allocated on first Observe
	observers map[int][]*registration

	// signal name -> connections, allocated on first Connect
	signals map[string][]*connection

	nextID uint64

	notify    bool
	frozen    bool
	destroyed bool

	depth    int
	maxDepth int

	logger *zap.Logger
	instr  Instrumentation
}

// Option configures an Atom.
type Option func(*Atom)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Atom) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMaxDepth limits nested writes and notifications. Zero disables the limit.
func WithMaxDepth(depth int) Option {
	return func(a *Atom) {
		if depth >= 0 {
			a.maxDepth = depth
		}
	}
}

// WithInstrumentation sets the instrumentation sink.
func WithInstrumentation(instr Instrumentation) Option {
	return func(a *Atom) {
		if instr != nil {
			a.instr = instr
		}
	}
}

// New creates an atom of class c, sealing the class first.
// Every slot starts unset.
func New(c *Class, opts ...Option) (*Atom, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil class", ErrInvalidClass)
	}
	if !c.sealed {
		if err := c.Seal(); err != nil {
			return nil, err
		}
	}

	a := &Atom{
		id:       uuid.NewString(),
		class:    c,
		slots:    make([]any, len(c.members)),
		notify:   true,
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
		instr:    nopInstrumentation{},
	}
	for _, opt := range opts {
		opt(a)
	}
	for i := range a.slots {
		a.slots[i] = Undefined
	}

	c.instances.Add(1)
	c.live.Add(1)
	return a, nil
}

// ID returns the atom's unique identifier.
func (a *Atom) ID() string { return a.id }

// Class returns the atom's class.
func (a *Atom) Class() *Class { return a.class }

// String returns "Class(id)".
func (a *Atom) String() string {
	return fmt.Sprintf("%s(%s)", a.class.name, a.id)
}

func (a *Atom) member(name string) (*Member, error) {
	if a.destroyed {
		return nil, ErrDestroyed
	}
	m, ok := a.class.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, a.class.name, name)
	}
	return m, nil
}

func (a *Atom) memberAt(i int) (*Member, error) {
	if a.destroyed {
		return nil, ErrDestroyed
	}
	m, ok := a.class.MemberAt(i)
	if !ok {
		return nil, fmt.Errorf("%w: slot %d of %s", ErrUnknownMember, i, a.class.name)
	}
	return m, nil
}

func (a *Atom) checkMember(m *Member) error {
	if a.destroyed {
		return ErrDestroyed
	}
	if m.class != a.class {
		return fmt.Errorf("%w: %s is not a member of %s", ErrUnknownMember, m, a.class.name)
	}
	return nil
}

func (a *Atom) checkWritable(m *Member) error {
	if err := a.checkMember(m); err != nil {
		return err
	}
	if a.frozen {
		return fmt.Errorf("%w: %s", ErrFrozen, a)
	}
	return nil
}

// Get reads the named member.
func (a *Atom) Get(name string) (any, error) {
	m, err := a.member(name)
	if err != nil {
		return nil, err
	}
	return m.Get(a)
}

// Set writes the named member.
func (a *Atom) Set(name string, value any) error {
	m, err := a.member(name)
	if err != nil {
		return err
	}
	return m.Set(a, value)
}

// Delete resets the named member.
func (a *Atom) Delete(name string) error {
	m, err := a.member(name)
	if err != nil {
		return err
	}
	return m.Delete(a)
}

// GetSlot reads the member bound to slot i.
func (a *Atom) GetSlot(i int) (any, error) {
	m, err := a.memberAt(i)
	if err != nil {
		return nil, err
	}
	return m.Get(a)
}

// SetSlot writes the member bound to slot i.
func (a *Atom) SetSlot(i int, value any) error {
	m, err := a.memberAt(i)
	if err != nil {
		return err
	}
	return m.Set(a, value)
}

// DeleteSlot resets the member bound to slot i.
func (a *Atom) DeleteSlot(i int) error {
	m, err := a.memberAt(i)
	if err != nil {
		return err
	}
	return m.Delete(a)
}

// IsSet reports whether the named member's slot holds a value.
func (a *Atom) IsSet(name string) bool {
	m, err := a.member(name)
	if err != nil {
		return false
	}
	return a.slots[m.index] != Undefined
}

// ResetProperty forces the named member back to unset so the next read
// recomputes it. Observed members are recomputed immediately and notified
// with a ChangeProperty change.
//
// This is a maintenance entry point; ordinary code should use Delete.
func (a *Atom) ResetProperty(name string) error {
	m, err := a.member(name)
	if err != nil {
		return err
	}
	return a.invalidate(m)
}

// SetNotificationsEnabled enables or disables observer and signal
// delivery and returns the previous setting.
func (a *Atom) SetNotificationsEnabled(enabled bool) bool {
	prev := a.notify
	a.notify = enabled
	return prev
}

// NotificationsEnabled reports whether notifications are delivered.
func (a *Atom) NotificationsEnabled() bool { return a.notify }

// Freeze makes the atom reject every further write. It cannot be undone.
func (a *Atom) Freeze() { a.frozen = true }

// IsFrozen reports whether the atom is frozen.
func (a *Atom) IsFrozen() bool { return a.frozen }

// IsDestroyed reports whether Destroy has been called.
func (a *Atom) IsDestroyed() bool { return a.destroyed }

// Destroy detaches every owned container, drops all observers and signal
// connections, and marks the atom destroyed. Every later operation
// returns ErrDestroyed. Destroying twice is a no-op.
func (a *Atom) Destroy() {
	if a.destroyed {
		return
	}

	detached := 0
	for i, v := range a.slots {
		if a.release(a.class.members[i], v) {
			detached++
		}
		a.slots[i] = Undefined
	}
	a.observers = nil
	a.signals = nil
	a.destroyed = true
	a.class.live.Add(-1)

	a.logger.Debug("atom destroyed",
		zap.String("class", a.class.name),
		zap.String("id", a.id),
		zap.Int("detached", detached),
	)
}

func (a *Atom) enter() error {
	if a.maxDepth > 0 && a.depth >= a.maxDepth {
		return fmt.Errorf("%w: %s nested %d deep", ErrRecursionLimit, a, a.depth)
	}
	a.depth++
	return nil
}

func (a *Atom) leave() {
	a.depth--
}

// release detaches v if it is a container owned by m of this atom.
func (a *Atom) release(m *Member, v any) bool {
	c, ok := v.(container)
	if !ok {
		return false
	}
	own := c.owner()
	if own == nil || own.atom != a || own.member != m {
		return false
	}
	c.detach()
	a.logger.Debug("container detached",
		zap.String("class", a.class.name),
		zap.String("member", m.name),
		zap.String("id", a.id),
	)
	return true
}

func (a *Atom) written(m *Member, kind ChangeKind) {
	a.instr.SlotWritten(a.class.name, m.name, kind)
}

func (a *Atom) validationFailed(m *Member) {
	a.instr.ValidationFailed(a.class.name, m.name)
}

// storesInSlot reports whether the member's value lives in its slot.
func (m *Member) storesInSlot() bool {
	switch m.access.kind {
	case AccessSlot, AccessReadOnly, AccessCachedProperty:
		return true
	}
	return false
}

// resetSlot clears m's slot and returns the previous value, or Undefined.
func (a *Atom) resetSlot(m *Member) any {
	if !m.storesInSlot() {
		return Undefined
	}
	old := a.slots[m.index]
	a.slots[m.index] = Undefined
	a.release(m, old)
	return old
}

func (a *Atom) invalidate(m *Member) error {
	if err := a.enter(); err != nil {
		return err
	}
	defer a.leave()
	return a.refresh(m, a.resetSlot(m))
}

// publish delivers a committed change: observers of m, then dependents
// of m, then signals wired to m.
func (a *Atom) publish(m *Member, change Change) error {
	return a.propagate(m, &change)
}

func (a *Atom) propagate(m *Member, change *Change) error {
	deps := a.class.dependents[m.index]
	stale := make([]any, len(deps))
	for i, d := range deps {
		stale[i] = a.resetSlot(a.class.members[d])
	}

	if !a.notify {
		for _, d := range deps {
			a.resetTransitive(d)
		}
		return nil
	}

	if change != nil {
		if err := a.dispatchChange(m, *change); err != nil {
			return err
		}
	}
	for i, d := range deps {
		if err := a.refresh(a.class.members[d], stale[i]); err != nil {
			return err
		}
	}
	if change != nil {
		for _, name := range a.class.emits[m.index] {
			if err := a.emit(name, []any{*change}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Atom) resetTransitive(i int) {
	for _, d := range a.class.dependents[i] {
		a.resetSlot(a.class.members[d])
		a.resetTransitive(d)
	}
}

// refresh recomputes an invalidated member if anything observes it and
// notifies its observers with a ChangeProperty change.
func (a *Atom) refresh(m *Member, old any) error {
	if !a.notify {
		a.resetTransitive(m.index)
		return nil
	}
	if !a.observed(m) {
		return a.propagate(m, nil)
	}

	v, err := m.Get(a)
	if err != nil {
		return err
	}
	if old == Undefined {
		old = nil
	}
	if valuesEqual(old, v) {
		return a.propagate(m, nil)
	}
	a.written(m, ChangeProperty)
	return a.publish(m, Change{Kind: ChangeProperty, Object: a, Name: m.name, Old: old, New: v})
}

// containerChanged forwards a container mutation committed on behalf of m.
func (a *Atom) containerChanged(m *Member, change Change) error {
	if a.destroyed {
		return nil
	}
	if err := a.enter(); err != nil {
		return err
	}
	defer a.leave()

	change.Object = a
	change.Name = m.name
	a.written(m, change.Kind)
	return a.publish(m, change)
}

package atom

import "fmt"

// Member is the descriptor bound to one slot of a class.
//
// Members are configured before their class is first instantiated. After
// that the class is sealed and configuration methods return ErrSealed;
// static observers may still be added and removed.
type Member struct {
	name  string
	index int
	class *Class

	access       AccessMode
	defaultMode  DefaultMode
	validateMode ValidateMode
	postGet      PostGetFunc
	postSet      PostSetFunc
	postValidate PostValidateFunc

	metadata map[string]any

	// copy-on-write, see observers.go
	staticObservers []*registration
	nextStaticID    uint64
}

// MemberOption configures a Member.
type MemberOption func(*Member)

// WithIndex sets the slot index.
func WithIndex(i int) MemberOption {
	return func(m *Member) {
		m.index = i
	}
}

// WithAccess sets the access mode.
func WithAccess(mode AccessMode) MemberOption {
	return func(m *Member) {
		m.access = mode
	}
}

// WithDefault sets the default mode.
func WithDefault(mode DefaultMode) MemberOption {
	return func(m *Member) {
		m.defaultMode = mode
	}
}

// WithValidate sets the validate mode.
func WithValidate(mode ValidateMode) MemberOption {
	return func(m *Member) {
		m.validateMode = mode
	}
}

// WithPostGet sets the post-get hook.
func WithPostGet(fn PostGetFunc) MemberOption {
	return func(m *Member) {
		m.postGet = fn
	}
}

// WithPostSet sets the post-set hook.
func WithPostSet(fn PostSetFunc) MemberOption {
	return func(m *Member) {
		m.postSet = fn
	}
}

// WithPostValidate sets the post-validate hook.
func WithPostValidate(fn PostValidateFunc) MemberOption {
	return func(m *Member) {
		m.postValidate = fn
	}
}

// WithMetadata attaches an opaque metadata entry.
func WithMetadata(key string, value any) MemberOption {
	return func(m *Member) {
		if m.metadata == nil {
			m.metadata = make(map[string]any)
		}
		m.metadata[key] = value
	}
}

// NewMember creates an unbound member. The index defaults to -1 and must be
// assigned before the member is added to a class.
func NewMember(name string, opts ...MemberOption) *Member {
	m := &Member{
		name:  name,
		index: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the member name.
func (m *Member) Name() string { return m.name }

// Index returns the slot index, or -1 if unassigned.
func (m *Member) Index() int { return m.index }

// Class returns the class the member is bound to, or nil.
func (m *Member) Class() *Class { return m.class }

// Access returns the access mode.
func (m *Member) Access() AccessMode { return m.access }

// DefaultMode returns the default mode.
func (m *Member) DefaultMode() DefaultMode { return m.defaultMode }

// ValidateMode returns the validate mode.
func (m *Member) ValidateMode() ValidateMode { return m.validateMode }

// PostGetKind reports whether a post-get hook is configured.
func (m *Member) PostGetKind() HookKind { return hookKind(m.postGet != nil) }

// PostSetKind reports whether a post-set hook is configured.
func (m *Member) PostSetKind() HookKind { return hookKind(m.postSet != nil) }

// PostValidateKind reports whether a post-validate hook is configured.
func (m *Member) PostValidateKind() HookKind { return hookKind(m.postValidate != nil) }

func hookKind(set bool) HookKind {
	if set {
		return HookCall
	}
	return HookNoOp
}

// Metadata returns a metadata entry.
func (m *Member) Metadata(key string) (any, bool) {
	v, ok := m.metadata[key]
	return v, ok
}

// String returns "Class.member" or the bare name for unbound members.
func (m *Member) String() string {
	if m.class == nil {
		return m.name
	}
	return m.class.name + "." + m.name
}

func (m *Member) sealed() bool {
	return m.class != nil && m.class.sealed
}

func (m *Member) configure(fn func()) error {
	if m.sealed() {
		return fmt.Errorf("%w: cannot modify %s", ErrSealed, m)
	}
	fn()
	return nil
}

// SetIndex assigns the slot index. Only valid before the member is bound.
func (m *Member) SetIndex(i int) error {
	if m.class != nil {
		return fmt.Errorf("%w: %s is already bound to a class", ErrInvalidClass, m)
	}
	if i < 0 {
		return fmt.Errorf("%w: negative slot index %d for %s", ErrInvalidClass, i, m.name)
	}
	m.index = i
	return nil
}

// SetAccess replaces the access mode.
func (m *Member) SetAccess(mode AccessMode) error {
	return m.configure(func() { m.access = mode })
}

// SetDefault replaces the default mode.
func (m *Member) SetDefault(mode DefaultMode) error {
	return m.configure(func() { m.defaultMode = mode })
}

// SetValidate replaces the validate mode.
func (m *Member) SetValidate(mode ValidateMode) error {
	return m.configure(func() { m.validateMode = mode })
}

// SetPostGet replaces the post-get hook.
func (m *Member) SetPostGet(fn PostGetFunc) error {
	return m.configure(func() { m.postGet = fn })
}

// SetPostSet replaces the post-set hook.
func (m *Member) SetPostSet(fn PostSetFunc) error {
	return m.configure(func() { m.postSet = fn })
}

// SetPostValidate replaces the post-validate hook.
func (m *Member) SetPostValidate(fn PostValidateFunc) error {
	return m.configure(func() { m.postValidate = fn })
}

// Tag sets a metadata entry.
func (m *Member) Tag(key string, value any) error {
	return m.configure(func() {
		if m.metadata == nil {
			m.metadata = make(map[string]any)
		}
		m.metadata[key] = value
	})
}

// Default computes the member's default value for a. The result is not
// validated and not stored.
func (m *Member) Default(a *Atom) (any, error) {
	d := m.defaultMode
	switch d.kind {
	case DefaultNoOp:
		return nil, nil
	case DefaultStatic:
		return d.value, nil
	case DefaultList:
		return []any{}, nil
	case DefaultDict:
		return map[any]any{}, nil
	case DefaultFactory:
		return d.factory()
	case DefaultCall:
		return d.call(a)
	case DefaultDelegate:
		return d.delegate.Default(a)
	default:
		return nil, fmt.Errorf("%w: unknown default kind %d for %s", ErrInvalidClass, d.kind, m)
	}
}

// Validate runs the validate mode and the post-validate hook on proposed.
// Old is the current slot value, or Undefined when the slot is unset.
// The atom may be nil for values that are not stored in any atom.
func (m *Member) Validate(a *Atom, old, proposed any) (any, error) {
	v, err := m.runValidate(a, old, proposed)
	if err != nil {
		return nil, err
	}
	if m.postValidate == nil {
		return v, nil
	}
	accepted, err := m.postValidate(a, m, old, v)
	if err != nil {
		if a != nil {
			a.release(m, v)
		}
		return nil, err
	}
	return accepted, nil
}

// Get reads the member's value from a.
func (m *Member) Get(a *Atom) (any, error) {
	if err := a.checkMember(m); err != nil {
		return nil, err
	}

	var v any
	var err error
	switch m.access.kind {
	case AccessSlot, AccessReadOnly, AccessCachedProperty:
		v, err = m.slotValue(a)
	case AccessConstant:
		v, err = m.Default(a)
	case AccessProperty:
		if m.access.getter == nil {
			return nil, fmt.Errorf("%w: %s has no getter", ErrNotReadable, m)
		}
		v, err = m.access.getter(a)
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrNotReadable, m, m.access.kind)
	}
	if err != nil {
		return nil, err
	}

	if m.postGet != nil {
		return m.postGet(a, m, v)
	}
	return v, nil
}

// slotValue returns the stored value, computing and memoising the initial
// value if the slot is unset.
func (m *Member) slotValue(a *Atom) (any, error) {
	v := a.slots[m.index]
	if v != Undefined {
		return v, nil
	}

	var err error
	switch {
	case m.access.kind == AccessCachedProperty:
		v, err = m.access.getter(a)
	case m.defaultMode.kind == DefaultNoOp:
		// an unset member without a default reads as nil
		v = nil
	default:
		v, err = m.Default(a)
		if err == nil {
			v, err = m.Validate(a, Undefined, v)
		}
	}
	if err != nil {
		return nil, err
	}

	a.slots[m.index] = v
	return v, nil
}

// Set writes value to the member of a.
func (m *Member) Set(a *Atom, value any) error {
	if err := a.checkWritable(m); err != nil {
		return err
	}

	switch m.access.kind {
	case AccessSlot:
		return m.setSlot(a, value)
	case AccessReadOnly:
		if a.slots[m.index] != Undefined {
			return fmt.Errorf("%w: %s", ErrReadOnly, m)
		}
		return m.setSlot(a, value)
	case AccessConstant:
		return fmt.Errorf("%w: %s", ErrConstant, m)
	case AccessEvent:
		return m.fire(a, value)
	case AccessProperty:
		if m.access.setter == nil {
			return fmt.Errorf("%w: %s has no setter", ErrNotWritable, m)
		}
		return m.access.setter(a, value)
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotWritable, m, m.access.kind)
	}
}

func (m *Member) setSlot(a *Atom, value any) error {
	if err := a.enter(); err != nil {
		return err
	}
	defer a.leave()

	old := a.slots[m.index]
	accepted, err := m.Validate(a, old, value)
	if err != nil {
		a.validationFailed(m)
		return err
	}

	if old != Undefined && valuesEqual(old, accepted) {
		return nil
	}

	a.slots[m.index] = accepted
	a.release(m, old)

	change := Change{Kind: ChangeUpdate, Object: a, Name: m.name, Old: old, New: accepted}
	if old == Undefined {
		change.Kind = ChangeCreate
		change.Old = nil
	}
	a.written(m, change.Kind)

	if err := a.publish(m, change); err != nil {
		return err
	}

	if m.postSet != nil {
		return m.postSet(a, m, change.Old, accepted)
	}
	return nil
}

// fire validates value and notifies observers without storing it.
func (m *Member) fire(a *Atom, value any) error {
	if err := a.enter(); err != nil {
		return err
	}
	defer a.leave()

	accepted, err := m.Validate(a, Undefined, value)
	if err != nil {
		a.validationFailed(m)
		return err
	}
	a.written(m, ChangeEvent)

	if err := a.publish(m, Change{Kind: ChangeEvent, Object: a, Name: m.name, New: accepted}); err != nil {
		return err
	}
	if m.postSet != nil {
		return m.postSet(a, m, nil, accepted)
	}
	return nil
}

// Delete resets the member of a. Slot members return to unset and emit a
// ChangeDelete; deleting an unset slot is a no-op.
func (m *Member) Delete(a *Atom) error {
	if err := a.checkWritable(m); err != nil {
		return err
	}

	switch m.access.kind {
	case AccessSlot:
		old := a.slots[m.index]
		if old == Undefined {
			return nil
		}
		if err := a.enter(); err != nil {
			return err
		}
		defer a.leave()

		a.slots[m.index] = Undefined
		a.release(m, old)
		a.written(m, ChangeDelete)
		return a.publish(m, Change{Kind: ChangeDelete, Object: a, Name: m.name, Old: old})
	case AccessCachedProperty:
		return a.invalidate(m)
	case AccessProperty:
		if m.access.deleter == nil {
			return fmt.Errorf("%w: %s has no deleter", ErrNotDeletable, m)
		}
		return m.access.deleter(a)
	case AccessConstant:
		return fmt.Errorf("%w: %s", ErrConstant, m)
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotDeletable, m, m.access.kind)
	}
}

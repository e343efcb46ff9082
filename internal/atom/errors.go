package atom

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the atom runtime.
var (
	// ErrValidation is matched by every validation failure, including type
	// mismatches.
	ErrValidation = errors.New("validation failed")

	// ErrTypeMismatch is matched by failures caused by a value of the wrong shape.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrObserver is matched by failures raised by observers or signal handlers.
	ErrObserver = errors.New("observer failed")

	// ErrUnknownMember is returned when a name or index does not resolve to a member.
	ErrUnknownMember = errors.New("unknown member")

	// ErrReadOnly is returned when a read-only member is written after it was set.
	ErrReadOnly = errors.New("member is read-only")

	// ErrConstant is returned when a constant member is written or deleted.
	ErrConstant = errors.New("member is constant")

	// ErrNotReadable is returned when reading an event or signal member.
	ErrNotReadable = errors.New("member cannot be read")

	// ErrNotWritable is returned when writing a signal or cached property member.
	ErrNotWritable = errors.New("member cannot be written")

	// ErrNotDeletable is returned when deleting a member that does not support it.
	ErrNotDeletable = errors.New("member cannot be deleted")

	// ErrInvalidSignal is returned when connecting to a name that is a non-signal member.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrFrozen is returned when writing to a frozen atom.
	ErrFrozen = errors.New("atom is frozen")

	// ErrDestroyed is returned by every operation on a destroyed atom.
	ErrDestroyed = errors.New("atom is destroyed")

	// ErrSealed is returned when a member or class is modified after its first instantiation.
	ErrSealed = errors.New("class is sealed")

	// ErrRecursionLimit is returned when nested writes exceed the atom's depth limit.
	ErrRecursionLimit = errors.New("recursion limit exceeded")

	// ErrInvalidClass is returned when a class definition is malformed.
	ErrInvalidClass = errors.New("invalid class")

	// ErrUnknownClass is returned when a registry lookup fails.
	ErrUnknownClass = errors.New("unknown class")

	// ErrDuplicateClass is returned when registering a class name twice.
	ErrDuplicateClass = errors.New("duplicate class")

	// ErrIndexOutOfRange is returned by list operations with a bad index.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotFound is returned when a list value or dict key is missing.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a value rejected by a member.
type ValidationError struct {
	// Class is the owning class name, empty for detached values.
	Class string

	// Member is the member that rejected the value.
	Member string

	// Value is the rejected value.
	Value any

	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %#v for %s: %s", e.Value, qualify(e.Class, e.Member), e.Reason)
}

// Is allows errors.Is to match ValidationError with ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TypeMismatchError reports a value whose shape does not match the member.
type TypeMismatchError struct {
	// Class is the owning class name, empty for detached values.
	Class string

	// Member is the member that rejected the value.
	Member string

	// Value is the rejected value.
	Value any

	// Expected describes the accepted shape.
	Expected string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s expects %s, got %T", qualify(e.Class, e.Member), e.Expected, e.Value)
}

// Is matches both ErrTypeMismatch and ErrValidation.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch || target == ErrValidation
}

// ObserverError wraps a failure raised while notifying observers or
// signal handlers. The mutation that triggered the notification has
// already been committed.
type ObserverError struct {
	// Class is the class of the notifying atom.
	Class string

	// Member is the member or signal name being notified.
	Member string

	// Change is the change being delivered, zero for signal emissions.
	Change Change

	// Err is the error returned by the observer, nil if it panicked.
	Err error

	// Panic is the recovered panic value, if the observer panicked.
	Panic any

	// Stack is the stack trace captured at the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *ObserverError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("observer of %s panicked: %v", qualify(e.Class, e.Member), e.Panic)
	}
	return fmt.Sprintf("observer of %s failed: %v", qualify(e.Class, e.Member), e.Err)
}

// Unwrap returns the underlying error.
func (e *ObserverError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ObserverError with ErrObserver.
func (e *ObserverError) Is(target error) bool {
	return target == ErrObserver
}

// CycleError reports a cycle in a class's static dependency graph.
type CycleError struct {
	// Class is the class whose dependencies form a cycle.
	Class string

	// Path lists the member names along the cycle, first and last equal.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle in class %s: %s", e.Class, strings.Join(e.Path, " -> "))
}

// Is allows errors.Is to match CycleError with ErrInvalidClass.
func (e *CycleError) Is(target error) bool {
	return target == ErrInvalidClass
}

func qualify(class, member string) string {
	switch {
	case class == "":
		return member
	case member == "":
		return class
	default:
		return class + "." + member
	}
}

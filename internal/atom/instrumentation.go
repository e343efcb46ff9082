package atom

import "time"

// Instrumentation receives runtime measurements from atoms.
// Implementations must be cheap; they run inline on every write.
type Instrumentation interface {
	// SlotWritten is called after a change has been committed.
	SlotWritten(class, member string, kind ChangeKind)

	// ValidationFailed is called when a write or container mutation is rejected.
	ValidationFailed(class, member string)

	// ObserversNotified is called after a notification pass.
	ObserversNotified(class, member string, observers int, elapsed time.Duration)

	// ObserverFailed is called when an observer or signal handler fails.
	ObserverFailed(class, member string, panicked bool)
}

type nopInstrumentation struct{}

func (nopInstrumentation) SlotWritten(string, string, ChangeKind)               {}
func (nopInstrumentation) ValidationFailed(string, string)                      {}
func (nopInstrumentation) ObserversNotified(string, string, int, time.Duration) {}
func (nopInstrumentation) ObserverFailed(string, string, bool)                  {}

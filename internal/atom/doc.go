// Package atom provides observable objects with slot-based attribute storage.
//
// An Atom is an instance of a Class. Its attributes ("members") live in a
// fixed-length slot table sized when the class is defined, and every read
// or write goes through the Member bound to that slot. The member decides
// how defaults are computed, how proposed values are validated, and which
// hooks run after a read or write. Successful writes produce a Change that
// is delivered to the observers registered for that slot.
//
// # Architecture
//
//	┌──────────┐  Get/Set   ┌──────────┐  Change   ┌────────────────┐
//	│   Atom   │──────────▶│  Member  │─────────▶│ observer table │──▶ observers
//	│  slots   │◀──────────│ validate │          │ (snapshot)     │
//	└──────────┘   store    │ default  │          └────────────────┘
//	     ▲                  └──────────┘                  │
//	     │ back-reference                                 ▼
//	┌──────────────────┐                          static dependencies
//	│ List / Dict / Ref│── mutation ──▶ same path  (dependent slots, signals)
//	└──────────────────┘
//
// # Members
//
// Member behavior is described by a small closed set of modes:
//
//   - AccessMode: how the slot is read, written and deleted (slot,
//     read-only, constant, event, signal, property, cached property)
//   - DefaultMode: how the initial value is computed on first read
//   - ValidateMode: how a proposed value is checked or coerced
//   - post-get, post-set and post-validate hook functions
//
// Defaults are computed lazily on first read and memoised in the slot.
// A write whose validated value equals the current one is a no-op and
// emits nothing.
//
// # Observers and Signals
//
// Observers are registered per member with Atom.Observe (instance) or
// Member.AddStaticObserver (every atom of the class). They run in
// registration order, synchronously, over a snapshot of the observer list
// taken when the notification pass starts. An observer that returns an
// error or panics aborts the rest of that pass; the error reaches the
// caller of the write as an *ObserverError. The write itself is not rolled
// back.
//
// Signals are named channels with their own Connect/Emit protocol.
//
// # Containers
//
// Members validated with ListValidator, DictValidator or RefValidator store
// observable containers bound to the owning atom and member. Mutating such
// a container produces a container Change through the same dispatch path as
// a slot write. Overwriting the slot, deleting it, or destroying the atom
// detaches the container permanently; a detached container behaves as a
// plain value and never notifies.
//
// # Thread Safety
//
// Atoms, members and containers are not safe for concurrent use. A single
// goroutine must own an atom during any get/set/notify sequence. Registry
// is safe for concurrent use.
package atom

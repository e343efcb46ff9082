package atom

import (
	"fmt"

	"github.com/seanpm2001/atom/internal/dispatch"
)

// SignalHandler receives the arguments of an Emit.
type SignalHandler func(args ...any) error

// Connection identifies a signal connection. The zero Connection is invalid.
type Connection struct {
	signal string
	id     uint64
}

// Valid reports whether c refers to a connection.
func (c Connection) Valid() bool { return c.id != 0 }

// Signal returns the connected signal name.
func (c Connection) Signal() string { return c.signal }

type connection struct {
	id uint64
	fn SignalHandler
}

type signalArgs []any

// Handle implements dispatch.Handler.
func (c *connection) Handle(event any) error {
	return c.fn(event.(signalArgs)...)
}

// checkSignal rejects names of members that are not signals. Names that
// are not members at all are free-standing signals.
func (a *Atom) checkSignal(name string) (*Member, error) {
	if a.destroyed {
		return nil, ErrDestroyed
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty signal name", ErrInvalidSignal)
	}
	m, ok := a.class.byName[name]
	if !ok {
		return nil, nil
	}
	if m.access.kind != AccessSignal {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidSignal, m, m.access.kind)
	}
	return m, nil
}

// Connect attaches fn to the named signal. Handlers run in connection order.
func (a *Atom) Connect(name string, fn SignalHandler) (Connection, error) {
	if _, err := a.checkSignal(name); err != nil {
		return Connection{}, err
	}
	if fn == nil {
		return Connection{}, fmt.Errorf("%w: nil handler for %s", ErrInvalidSignal, name)
	}

	if a.signals == nil {
		a.signals = make(map[string][]*connection)
	}
	a.nextID++
	c := &connection{id: a.nextID, fn: fn}

	conns := a.signals[name]
	out := make([]*connection, len(conns), len(conns)+1)
	copy(out, conns)
	a.signals[name] = append(out, c)
	return Connection{signal: name, id: c.id}, nil
}

// Disconnect detaches a handler. It reports whether the connection was found.
func (a *Atom) Disconnect(c Connection) bool {
	conns := a.signals[c.signal]
	for i, conn := range conns {
		if conn.id != c.id {
			continue
		}
		if len(conns) == 1 {
			delete(a.signals, c.signal)
			return true
		}
		out := make([]*connection, 0, len(conns)-1)
		out = append(out, conns[:i]...)
		a.signals[c.signal] = append(out, conns[i+1:]...)
		return true
	}
	return false
}

// ConnectionCount returns the number of handlers connected to the named signal.
func (a *Atom) ConnectionCount(name string) int {
	return len(a.signals[name])
}

// Emit calls every handler connected to the named signal with args. If the
// name is a signal member, its observers then receive a ChangeEvent change
// whose New is the argument slice. Nothing is delivered while
// notifications are disabled.
func (a *Atom) Emit(name string, args ...any) error {
	if _, err := a.checkSignal(name); err != nil {
		return err
	}
	if !a.notify {
		return nil
	}
	if err := a.enter(); err != nil {
		return err
	}
	defer a.leave()
	return a.emit(name, args)
}

func (a *Atom) emit(name string, args []any) error {
	if conns := a.signals[name]; len(conns) > 0 {
		handlers := make([]dispatch.Handler, len(conns))
		for i, c := range conns {
			handlers[i] = c
		}
		pass := a.class.dispatcher.Run(signalArgs(args), handlers)
		if failed, ok := pass.Failure(); ok {
			return a.observerFailed(name, Change{}, failed)
		}
	}

	m, ok := a.class.byName[name]
	if !ok || m.access.kind != AccessSignal {
		return nil
	}
	a.written(m, ChangeEvent)
	return a.dispatchChange(m, Change{Kind: ChangeEvent, Object: a, Name: name, New: args})
}

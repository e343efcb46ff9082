package dispatch

import (
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Handler receives one event.
type Handler interface {
	Handle(event any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(event any) error

// Handle calls f.
func (f HandlerFunc) Handle(event any) error {
	return f(event)
}

// PanicHandler observes a recovered panic.
type PanicHandler func(event any, value any, stack []byte)

// Outcome classifies a single handler call.
type Outcome uint8

const (
	// OK means the handler returned nil.
	OK Outcome = iota
	// Failed means the handler returned an error.
	Failed
	// Panicked means the handler panicked.
	Panicked
	// Skipped means an earlier handler in the pass failed.
	Skipped
)

var outcomeNames = [...]string{
	OK:       "ok",
	Failed:   "failed",
	Panicked: "panicked",
	Skipped:  "skipped",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Result is the outcome of one handler call.
type Result struct {
	Outcome Outcome

	// Err is the returned error when Outcome is Failed.
	Err error

	// Panic and Stack are set when Outcome is Panicked.
	Panic any
	Stack []byte

	Elapsed time.Duration
}

// OK reports whether the handler ran and returned nil.
func (r Result) OK() bool { return r.Outcome == OK }

// Call invokes h, recovering a panic into the result.
func Call(event any, h Handler) (r Result) {
	start := time.Now()
	defer func() {
		r.Elapsed = time.Since(start)
		if v := recover(); v != nil {
			r = Result{
				Outcome: Panicked,
				Panic:   v,
				Stack:   debug.Stack(),
				Elapsed: r.Elapsed,
			}
		}
	}()

	if err := h.Handle(event); err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return Result{Outcome: OK}
}

// Pass holds the results of one dispatch pass in handler order.
type Pass struct {
	Results []Result

	// failed is the index of the first failure, or -1.
	failed int
}

// Failure returns the first failed or panicked result.
func (p Pass) Failure() (Result, bool) {
	if p.failed < 0 || p.failed >= len(p.Results) {
		return Result{}, false
	}
	return p.Results[p.failed], true
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler installs a callback for recovered panics. A panic in
// the callback itself is swallowed.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) {
		d.onPanic = h
	}
}

// Dispatcher runs handler passes and keeps call statistics. It holds no
// handlers and may be shared.
type Dispatcher struct {
	onPanic PanicHandler

	calls    atomic.Uint64
	failed   atomic.Uint64
	panicked atomic.Uint64
	skipped  atomic.Uint64
	totalNs  atomic.Int64
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run calls handlers in order and stops at the first failure.
func (d *Dispatcher) Run(event any, handlers []Handler) Pass {
	return d.run(event, handlers, true)
}

// RunAll calls every handler regardless of failures. Failure reports
// the first one.
func (d *Dispatcher) RunAll(event any, handlers []Handler) Pass {
	return d.run(event, handlers, false)
}

func (d *Dispatcher) run(event any, handlers []Handler, stop bool) Pass {
	pass := Pass{Results: make([]Result, len(handlers)), failed: -1}
	for i, h := range handlers {
		r := d.call(event, h)
		pass.Results[i] = r
		if r.OK() {
			continue
		}
		if pass.failed < 0 {
			pass.failed = i
		}
		if stop {
			for j := i + 1; j < len(handlers); j++ {
				pass.Results[j] = Result{Outcome: Skipped}
			}
			d.skipped.Add(uint64(len(handlers) - i - 1))
			break
		}
	}
	return pass
}

func (d *Dispatcher) call(event any, h Handler) Result {
	r := Call(event, h)
	d.calls.Add(1)
	d.totalNs.Add(r.Elapsed.Nanoseconds())

	switch r.Outcome {
	case Failed:
		d.failed.Add(1)
	case Panicked:
		d.panicked.Add(1)
		if d.onPanic != nil {
			func() {
				defer func() { _ = recover() }()
				d.onPanic(event, r.Panic, r.Stack)
			}()
		}
	}
	return r
}

// Stats are cumulative call statistics.
type Stats struct {
	Calls    uint64
	Failed   uint64
	Panicked uint64
	Skipped  uint64

	// Total is the time spent inside handlers.
	Total time.Duration
}

// Average returns the mean handler time.
func (s Stats) Average() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// Stats returns a snapshot of the counters. Counters are read
// individually and may be mutually inconsistent under concurrent use.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Calls:    d.calls.Load(),
		Failed:   d.failed.Load(),
		Panicked: d.panicked.Load(),
		Skipped:  d.skipped.Load(),
		Total:    time.Duration(d.totalNs.Load()),
	}
}

// ResetStats zeroes the counters.
func (d *Dispatcher) ResetStats() {
	d.calls.Store(0)
	d.failed.Store(0)
	d.panicked.Store(0)
	d.skipped.Store(0)
	d.totalNs.Store(0)
}

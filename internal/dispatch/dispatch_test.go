package dispatch

import (
	"errors"
	"testing"
)

func record(log *[]string, name string, err error) Handler {
	return HandlerFunc(func(event any) error {
		*log = append(*log, name)
		return err
	})
}

func TestCall(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		handler Handler
		outcome Outcome
	}{
		{"ok", HandlerFunc(func(any) error { return nil }), OK},
		{"error", HandlerFunc(func(any) error { return boom }), Failed},
		{"panic", HandlerFunc(func(any) error { panic("bad") }), Panicked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Call("change", tt.handler)
			if r.Outcome != tt.outcome {
				t.Fatalf("Outcome = %v, want %v", r.Outcome, tt.outcome)
			}
			switch tt.outcome {
			case Failed:
				if !errors.Is(r.Err, boom) {
					t.Errorf("Err = %v, want boom", r.Err)
				}
			case Panicked:
				if r.Panic != "bad" || len(r.Stack) == 0 {
					t.Errorf("Panic = %v, stack %d bytes", r.Panic, len(r.Stack))
				}
			}
		})
	}
}

func TestCall_PassesEvent(t *testing.T) {
	var got any
	Call(42, HandlerFunc(func(event any) error {
		got = event
		return nil
	}))
	if got != 42 {
		t.Errorf("event = %v, want 42", got)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	d := New()
	var log []string
	boom := errors.New("boom")

	pass := d.Run(nil, []Handler{
		record(&log, "a", nil),
		record(&log, "b", boom),
		record(&log, "c", nil),
	})

	if len(log) != 2 || log[0] != "a" || log[1] != "b" {
		t.Errorf("called = %v, want [a b]", log)
	}
	if pass.Results[2].Outcome != Skipped {
		t.Errorf("third outcome = %v, want skipped", pass.Results[2].Outcome)
	}
	r, failed := pass.Failure()
	if !failed || !errors.Is(r.Err, boom) {
		t.Errorf("Failure() = %+v, %v", r, failed)
	}

	stats := d.Stats()
	if stats.Calls != 2 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestRunAll_CallsEveryHandler(t *testing.T) {
	d := New()
	var log []string

	pass := d.RunAll(nil, []Handler{
		record(&log, "a", errors.New("first")),
		record(&log, "b", errors.New("second")),
		record(&log, "c", nil),
	})

	if len(log) != 3 {
		t.Errorf("called = %v, want all three", log)
	}
	r, failed := pass.Failure()
	if !failed || r.Err.Error() != "first" {
		t.Errorf("Failure() = %+v, want first error", r)
	}
}

func TestRun_Empty(t *testing.T) {
	pass := New().Run(nil, nil)
	if _, failed := pass.Failure(); failed {
		t.Error("empty pass reported a failure")
	}
}

func TestRun_Reentrant(t *testing.T) {
	d := New()
	var log []string

	inner := record(&log, "inner", nil)
	outer := HandlerFunc(func(event any) error {
		log = append(log, "outer")
		d.Run(event, []Handler{inner})
		return nil
	})

	d.Run(nil, []Handler{outer, record(&log, "after", nil)})

	want := []string{"outer", "inner", "after"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestPanicHandler(t *testing.T) {
	var seen any
	d := New(WithPanicHandler(func(event, v any, stack []byte) {
		seen = v
		panic("handler panics too")
	}))

	pass := d.Run("e", []Handler{HandlerFunc(func(any) error { panic("observer") })})

	if seen != "observer" {
		t.Errorf("panic handler saw %v", seen)
	}
	if r, _ := pass.Failure(); r.Outcome != Panicked {
		t.Errorf("Outcome = %v, want panicked", r.Outcome)
	}
	if d.Stats().Panicked != 1 {
		t.Errorf("Panicked = %d, want 1", d.Stats().Panicked)
	}
}

func TestStats_AverageAndReset(t *testing.T) {
	d := New()
	d.Run(nil, []Handler{HandlerFunc(func(any) error { return nil })})

	if d.Stats().Average() != d.Stats().Total {
		t.Error("Average() of one call should equal Total")
	}

	d.ResetStats()
	if s := d.Stats(); s.Calls != 0 || s.Average() != 0 {
		t.Errorf("after reset Stats = %+v", s)
	}
}

func TestOutcome_String(t *testing.T) {
	if Skipped.String() != "skipped" || Outcome(99).String() != "unknown" {
		t.Error("unexpected Outcome names")
	}
}

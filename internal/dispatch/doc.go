// Package dispatch runs change handlers for the atom runtime.
//
// A pass calls handlers one after another in the caller's goroutine, in
// slice order. Run stops at the first handler that returns an error or
// panics and reports the rest as skipped; RunAll calls every handler.
//
// Panics are recovered and reported in the Result together with the
// stack, so a misbehaving observer never unwinds through the atom that
// triggered it.
//
//	d := dispatch.New(dispatch.WithPanicHandler(func(event, v any, stack []byte) {
//	    logger.Warn("observer panic", zap.Any("panic", v))
//	}))
//	pass := d.Run(change, handlers)
//	if r, failed := pass.Failure(); failed {
//	    return r.Err
//	}
//
// The caller owns the handler slice and must pass a stable snapshot;
// handlers may re-enter the dispatcher.
package dispatch

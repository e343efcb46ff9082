package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/seanpm2001/atom/internal/atom"
)

// Default limits for a Host.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultCallStackSize = 256

	minSweep = 64
)

// Host runs Lua scripts against a class registry.
type Host struct {
	L *lua.LState

	reg     *atom.Registry
	logger  *zap.Logger
	out     io.Writer
	timeout time.Duration
	stack   int

	// depth counts nested Lua calls; only the outermost call installs a
	// deadline.
	depth  int
	closed bool

	// objects caches one userdata per atom or container. Entries for
	// destroyed atoms and detached containers are swept.
	objects map[any]*lua.LUserData
	sweepAt int
}

// Option configures a Host.
type Option func(*Host)

// WithTimeout bounds every top-level script run and every callback
// invoked from Go. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// WithCallStackSize sets the Lua call stack size.
func WithCallStackSize(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.stack = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithOutput redirects print. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		if w != nil {
			h.out = w
		}
	}
}

// New creates a sandboxed host bound to reg.
func New(reg *atom.Registry, opts ...Option) (*Host, error) {
	if reg == nil {
		return nil, errors.New("script: nil registry")
	}

	h := &Host{
		reg:     reg,
		logger:  zap.NewNop(),
		out:     os.Stdout,
		timeout: DefaultTimeout,
		stack:   DefaultCallStackSize,
		objects: make(map[any]*lua.LUserData),
		sweepAt: minSweep,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.L = lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: h.stack,
	})
	openSafeLibraries(h.L)
	installSandbox(h.L)
	h.L.SetGlobal("print", h.L.NewFunction(h.print))

	h.registerTypes()
	h.L.SetGlobal("atom", h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"new":     h.luaNew,
		"classes": h.luaClasses,
		"members": h.luaMembers,
	}))
	return h, nil
}

// openSafeLibraries opens the base, table, string and math libraries only.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// installSandbox removes the loaders that reach the file system or
// compile code at run time.
func installSandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Registry returns the registry scripts create atoms from.
func (h *Host) Registry() *atom.Registry {
	return h.reg
}

// DoString runs code. source names the chunk in errors.
func (h *Host) DoString(ctx context.Context, source, code string) error {
	if h.closed {
		return ErrHostClosed
	}
	fn, err := h.L.Load(strings.NewReader(code), source)
	if err != nil {
		return &ScriptError{Source: source, Err: err}
	}
	_, err = h.run(ctx, source, fn, 0)
	return err
}

// DoFile runs the script at path.
func (h *Host) DoFile(ctx context.Context, path string) error {
	if h.closed {
		return ErrHostClosed
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fn, err := h.L.Load(f, path)
	if err != nil {
		return &ScriptError{Source: path, Err: err}
	}
	start := time.Now()
	_, err = h.run(ctx, path, fn, 0)
	h.logger.Debug("script finished",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}

// Call calls the global function name and returns its results as Go
// values.
func (h *Host) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	fn, ok := h.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, name)
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = h.toLua(a)
	}
	rets, err := h.run(ctx, name, fn, lua.MultRet, largs...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rets))
	for i, r := range rets {
		out[i] = h.toGo(r)
	}
	return out, nil
}

// SetGlobal exposes v to scripts as a global.
func (h *Host) SetGlobal(name string, v any) {
	if h.closed {
		return
	}
	h.L.SetGlobal(name, h.toLua(v))
}

// Global returns a global converted to a Go value. Atoms and containers
// come back as themselves.
func (h *Host) Global(name string) any {
	if h.closed {
		return nil
	}
	return h.toGo(h.L.GetGlobal(name))
}

// Close releases the interpreter. Lua observers still attached to atoms
// fail with ErrHostClosed afterwards.
func (h *Host) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.L.Close()
	h.objects = nil
	return nil
}

// run calls fn in protected mode and collects nret results, or all
// results when nret is lua.MultRet.
func (h *Host) run(ctx context.Context, source string, fn *lua.LFunction, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	if h.depth == 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		if h.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}
		h.L.SetContext(ctx)
		defer h.L.RemoveContext()
	}
	h.depth++
	defer func() { h.depth-- }()

	top := h.L.GetTop()
	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, h.scriptError(source, err)
	}

	n := h.L.GetTop() - top
	if n <= 0 {
		return nil, nil
	}
	rets := make([]lua.LValue, n)
	for i := range rets {
		rets[i] = h.L.Get(top + i + 1)
	}
	h.L.Pop(n)
	return rets, nil
}

// scriptError unwraps Go errors raised through Lua and marks deadline
// failures.
func (h *Host) scriptError(source string, err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if ud, ok := apiErr.Object.(*lua.LUserData); ok {
			if goErr, ok := ud.Value.(error); ok {
				return &ScriptError{Source: source, Err: goErr}
			}
		}
	}
	if ctx := h.L.Context(); ctx != nil && ctx.Err() != nil {
		return &ScriptError{Source: source, Err: fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())}
	}
	return &ScriptError{Source: source, Err: err}
}

// raise aborts the running Lua function with err, keeping err reachable
// from the error returned to Go.
func (h *Host) raise(L *lua.LState, err error) int {
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, L.GetTypeMetatable(errorTypeName))
	L.Error(ud, 1)
	return 0
}

func (h *Host) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(h.out, strings.Join(parts, "\t"))
	return 0
}

func (h *Host) luaNew(L *lua.LState) int {
	a, err := h.reg.New(L.CheckString(1))
	if err != nil {
		return h.raise(L, err)
	}
	L.Push(h.toLua(a))
	return 1
}

func (h *Host) luaClasses(L *lua.LState) int {
	t := L.NewTable()
	for i, name := range h.reg.Classes() {
		t.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(t)
	return 1
}

func (h *Host) luaMembers(L *lua.LState) int {
	c, err := h.reg.Class(L.CheckString(1))
	if err != nil {
		return h.raise(L, err)
	}
	t := L.NewTable()
	for i, m := range c.Members() {
		t.RawSetInt(i+1, lua.LString(m.Name()))
	}
	L.Push(t)
	return 1
}

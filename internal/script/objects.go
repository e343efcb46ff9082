package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/seanpm2001/atom/internal/atom"
)

// Userdata type names.
const (
	atomTypeName       = "atom.Atom"
	listTypeName       = "atom.List"
	dictTypeName       = "atom.Dict"
	refTypeName        = "atom.Ref"
	handleTypeName     = "atom.Handle"
	connectionTypeName = "atom.Connection"
	errorTypeName      = "atom.Error"
)

func (h *Host) registerTypes() {
	h.defineType(atomTypeName, h.atomIndex, h.atomNewIndex, nil, map[string]lua.LGFunction{
		"get":        h.atomGet,
		"set":        h.atomSet,
		"delete":     h.atomDelete,
		"reset":      h.atomReset,
		"is_set":     h.atomIsSet,
		"observe":    h.atomObserve,
		"unobserve":  h.atomUnobserve,
		"connect":    h.atomConnect,
		"disconnect": h.atomDisconnect,
		"emit":       h.atomEmit,
		"destroy":    h.atomDestroy,
		"freeze":     h.atomFreeze,
		"frozen":     h.atomFrozen,
		"destroyed":  h.atomDestroyed,
		"notify":     h.atomNotify,
		"id":         h.atomID,
		"class":      h.atomClass,
	})
	h.defineType(listTypeName, h.listIndex, h.listNewIndex, h.listLen, map[string]lua.LGFunction{
		"len":          h.listLen,
		"get":          h.listGet,
		"set":          h.listSet,
		"append":       h.listAppend,
		"insert":       h.listInsert,
		"extend":       h.listExtend,
		"remove":       h.listRemove,
		"remove_value": h.listRemoveValue,
		"pop":          h.listPop,
		"clear":        h.listClear,
		"index":        h.listIndexOf,
		"items":        h.listItems,
		"reverse":      h.listReverse,
		"sort":         h.listSort,
	})
	h.defineType(dictTypeName, h.dictIndex, h.dictNewIndex, h.dictLen, map[string]lua.LGFunction{
		"len":    h.dictLen,
		"get":    h.dictGet,
		"has":    h.dictHas,
		"set":    h.dictSet,
		"delete": h.dictDelete,
		"pop":    h.dictPop,
		"clear":  h.dictClear,
		"keys":   h.dictKeys,
		"values": h.dictValues,
		"items":  h.dictItems,
		"update": h.dictUpdate,
	})
	h.defineType(refTypeName, nil, nil, nil, map[string]lua.LGFunction{
		"get":   h.refGet,
		"set":   h.refSet,
		"clear": h.refClear,
	})
	h.defineType(handleTypeName, nil, nil, nil, map[string]lua.LGFunction{
		"valid": func(L *lua.LState) int {
			hd, ok := L.CheckUserData(1).Value.(atom.Handle)
			L.Push(lua.LBool(ok && hd.Valid()))
			return 1
		},
	})
	h.defineType(connectionTypeName, nil, nil, nil, map[string]lua.LGFunction{
		"signal": func(L *lua.LState) int {
			c, _ := L.CheckUserData(1).Value.(atom.Connection)
			L.Push(lua.LString(c.Signal()))
			return 1
		},
	})
	h.defineType(errorTypeName, nil, nil, nil, nil)
}

// defineType creates the metatable for typ. Method lookups come first;
// index handles everything else when it is non-nil.
func (h *Host) defineType(typ string, index, newIndex, length lua.LGFunction, methods map[string]lua.LGFunction) {
	L := h.L
	mt := L.NewTypeMetatable(typ)

	fns := make(map[string]*lua.LFunction, len(methods))
	for name, fn := range methods {
		fns[name] = L.NewFunction(fn)
	}

	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		if key, ok := L.Get(2).(lua.LString); ok {
			if fn, ok := fns[string(key)]; ok {
				L.Push(fn)
				return 1
			}
		}
		if index == nil {
			L.Push(lua.LNil)
			return 1
		}
		return index(L)
	}))
	if newIndex != nil {
		L.SetField(mt, "__newindex", L.NewFunction(newIndex))
	}
	if length != nil {
		L.SetField(mt, "__len", L.NewFunction(length))
	}
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(fmt.Sprint(L.CheckUserData(1).Value)))
		return 1
	}))
}

func (h *Host) checkAtom(L *lua.LState, n int) *atom.Atom {
	if a, ok := L.CheckUserData(n).Value.(*atom.Atom); ok {
		return a
	}
	L.ArgError(n, "atom expected")
	return nil
}

func (h *Host) checkList(L *lua.LState, n int) *atom.List {
	if l, ok := L.CheckUserData(n).Value.(*atom.List); ok {
		return l
	}
	L.ArgError(n, "list expected")
	return nil
}

func (h *Host) checkDict(L *lua.LState, n int) *atom.Dict {
	if d, ok := L.CheckUserData(n).Value.(*atom.Dict); ok {
		return d
	}
	L.ArgError(n, "dict expected")
	return nil
}

func (h *Host) checkRef(L *lua.LState, n int) *atom.Ref {
	if r, ok := L.CheckUserData(n).Value.(*atom.Ref); ok {
		return r
	}
	L.ArgError(n, "ref expected")
	return nil
}

// newUserData wraps v without caching, for value types such as handles.
func (h *Host) newUserData(L *lua.LState, v any, typ string) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(typ))
	return ud
}

// observer adapts a Lua function to an atom observer.
func (h *Host) observer(fn *lua.LFunction) atom.Observer {
	return func(c atom.Change) error {
		if h.closed {
			return ErrHostClosed
		}
		_, err := h.run(context.Background(), "observer", fn, 0, h.changeTable(c))
		return err
	}
}

// signalHandler adapts a Lua function to a signal handler.
func (h *Host) signalHandler(fn *lua.LFunction) atom.SignalHandler {
	return func(args ...any) error {
		if h.closed {
			return ErrHostClosed
		}
		largs := make([]lua.LValue, len(args))
		for i, a := range args {
			largs[i] = h.toLua(a)
		}
		_, err := h.run(context.Background(), "signal", fn, 0, largs...)
		return err
	}
}

// pushResult pushes v, or raises err.
func (h *Host) pushResult(L *lua.LState, v any, err error) int {
	if err != nil {
		return h.raise(L, err)
	}
	L.Push(h.toLua(v))
	return 1
}

// done raises err or returns no values.
func (h *Host) done(L *lua.LState, err error) int {
	if err != nil {
		return h.raise(L, err)
	}
	return 0
}

package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/seanpm2001/atom/internal/atom"
)

func (h *Host) atomIndex(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	v, err := a.Get(L.CheckString(2))
	return h.pushResult(L, v, err)
}

func (h *Host) atomNewIndex(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	return h.done(L, h.setMember(a, L.CheckString(2), L.Get(3)))
}

func (h *Host) setMember(a *atom.Atom, name string, lv lua.LValue) error {
	m, _ := a.Class().Member(name)
	return a.Set(name, h.valueFor(m, lv))
}

func (h *Host) atomGet(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	v, err := a.Get(L.CheckString(2))
	return h.pushResult(L, v, err)
}

func (h *Host) atomSet(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	return h.done(L, h.setMember(a, L.CheckString(2), L.Get(3)))
}

func (h *Host) atomDelete(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	return h.done(L, a.Delete(L.CheckString(2)))
}

func (h *Host) atomReset(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	return h.done(L, a.ResetProperty(L.CheckString(2)))
}

func (h *Host) atomIsSet(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	L.Push(lua.LBool(a.IsSet(L.CheckString(2))))
	return 1
}

// atomObserve implements a:observe(name, fn [, kind...]). Kinds are
// change kind names such as "update" or "container-insert".
func (h *Host) atomObserve(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	name := L.CheckString(2)
	fn := L.CheckFunction(3)

	var mask atom.ChangeKind
	for i := 4; i <= L.GetTop(); i++ {
		k, ok := atom.ParseChangeKind(L.CheckString(i))
		if !ok {
			L.ArgError(i, "unknown change kind "+L.CheckString(i))
			return 0
		}
		mask |= k
	}
	var opts []atom.ObserveOption
	if mask != 0 {
		opts = append(opts, atom.WithChangeKinds(mask))
	}

	hd, err := a.Observe(name, h.observer(fn), opts...)
	if err != nil {
		return h.raise(L, err)
	}
	L.Push(h.newUserData(L, hd, handleTypeName))
	return 1
}

func (h *Host) atomUnobserve(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	hd, ok := L.CheckUserData(2).Value.(atom.Handle)
	if !ok {
		L.ArgError(2, "handle expected")
		return 0
	}
	L.Push(lua.LBool(a.Unobserve(hd)))
	return 1
}

func (h *Host) atomConnect(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	c, err := a.Connect(L.CheckString(2), h.signalHandler(L.CheckFunction(3)))
	if err != nil {
		return h.raise(L, err)
	}
	L.Push(h.newUserData(L, c, connectionTypeName))
	return 1
}

func (h *Host) atomDisconnect(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	c, ok := L.CheckUserData(2).Value.(atom.Connection)
	if !ok {
		L.ArgError(2, "connection expected")
		return 0
	}
	L.Push(lua.LBool(a.Disconnect(c)))
	return 1
}

func (h *Host) atomEmit(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	name := L.CheckString(2)
	args := make([]any, 0, L.GetTop()-2)
	for i := 3; i <= L.GetTop(); i++ {
		args = append(args, h.toGo(L.Get(i)))
	}
	return h.done(L, a.Emit(name, args...))
}

func (h *Host) atomDestroy(L *lua.LState) int {
	h.checkAtom(L, 1).Destroy()
	h.sweep()
	return 0
}

func (h *Host) atomFreeze(L *lua.LState) int {
	h.checkAtom(L, 1).Freeze()
	return 0
}

func (h *Host) atomFrozen(L *lua.LState) int {
	L.Push(lua.LBool(h.checkAtom(L, 1).IsFrozen()))
	return 1
}

func (h *Host) atomDestroyed(L *lua.LState) int {
	L.Push(lua.LBool(h.checkAtom(L, 1).IsDestroyed()))
	return 1
}

// atomNotify implements a:notify([enabled]) returning the previous
// setting. Without an argument it only reports.
func (h *Host) atomNotify(L *lua.LState) int {
	a := h.checkAtom(L, 1)
	if L.GetTop() < 2 {
		L.Push(lua.LBool(a.NotificationsEnabled()))
		return 1
	}
	L.Push(lua.LBool(a.SetNotificationsEnabled(L.ToBool(2))))
	return 1
}

func (h *Host) atomID(L *lua.LState) int {
	L.Push(lua.LString(h.checkAtom(L, 1).ID()))
	return 1
}

func (h *Host) atomClass(L *lua.LState) int {
	L.Push(lua.LString(h.checkAtom(L, 1).Class().Name()))
	return 1
}

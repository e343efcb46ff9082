package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/seanpm2001/atom/internal/atom"
)

// Lists are indexed from 1 in Lua.

func (h *Host) listIndex(L *lua.LState) int {
	l := h.checkList(L, 1)
	n, ok := L.Get(2).(lua.LNumber)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	v, err := l.At(int(n) - 1)
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(h.toLua(v))
	return 1
}

func (h *Host) listNewIndex(L *lua.LState) int {
	l := h.checkList(L, 1)
	i := L.CheckInt(2)
	v := h.toGo(L.Get(3))
	if i == l.Len()+1 {
		return h.done(L, l.Append(v))
	}
	return h.done(L, l.SetItem(i-1, v))
}

func (h *Host) listLen(L *lua.LState) int {
	L.Push(lua.LNumber(h.checkList(L, 1).Len()))
	return 1
}

func (h *Host) listGet(L *lua.LState) int {
	l := h.checkList(L, 1)
	v, err := l.At(L.CheckInt(2) - 1)
	return h.pushResult(L, v, err)
}

func (h *Host) listSet(L *lua.LState) int {
	l := h.checkList(L, 1)
	return h.done(L, l.SetItem(L.CheckInt(2)-1, h.toGo(L.Get(3))))
}

func (h *Host) listAppend(L *lua.LState) int {
	l := h.checkList(L, 1)
	return h.done(L, l.Append(h.toGo(L.Get(2))))
}

func (h *Host) listInsert(L *lua.LState) int {
	l := h.checkList(L, 1)
	return h.done(L, l.Insert(L.CheckInt(2)-1, h.toGo(L.Get(3))))
}

// listExtend accepts a table or another list.
func (h *Host) listExtend(L *lua.LState) int {
	l := h.checkList(L, 1)
	var values []any
	switch v := h.toGo(L.Get(2)).(type) {
	case []any:
		values = v
	case *atom.List:
		values = v.Items()
	default:
		L.ArgError(2, "table or list expected")
		return 0
	}
	return h.done(L, l.Extend(values...))
}

func (h *Host) listRemove(L *lua.LState) int {
	l := h.checkList(L, 1)
	v, err := l.Remove(L.CheckInt(2) - 1)
	return h.pushResult(L, v, err)
}

func (h *Host) listRemoveValue(L *lua.LState) int {
	l := h.checkList(L, 1)
	return h.done(L, l.RemoveValue(h.toGo(L.Get(2))))
}

func (h *Host) listPop(L *lua.LState) int {
	l := h.checkList(L, 1)
	v, err := l.Pop()
	return h.pushResult(L, v, err)
}

func (h *Host) listClear(L *lua.LState) int {
	return h.done(L, h.checkList(L, 1).Clear())
}

// listIndexOf returns the 1-based position of a value, or nil.
func (h *Host) listIndexOf(L *lua.LState) int {
	l := h.checkList(L, 1)
	i := l.Index(h.toGo(L.Get(2)))
	if i < 0 {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(i + 1))
	return 1
}

func (h *Host) listItems(L *lua.LState) int {
	L.Push(h.toLua(h.checkList(L, 1).Items()))
	return 1
}

func (h *Host) listReverse(L *lua.LState) int {
	return h.done(L, h.checkList(L, 1).Reverse())
}

// listSort sorts with an optional Lua comparator. Without one, numbers
// sort before strings and everything else by printed form.
func (h *Host) listSort(L *lua.LState) int {
	l := h.checkList(L, 1)
	if L.GetTop() < 2 || L.Get(2) == lua.LNil {
		return h.done(L, l.Sort(defaultLess))
	}

	fn := L.CheckFunction(2)
	var callErr error
	err := l.Sort(func(a, b any) bool {
		if callErr != nil {
			return false
		}
		rets, err := h.run(context.Background(), "sort", fn, 1, h.toLua(a), h.toLua(b))
		if err != nil {
			callErr = err
			return false
		}
		return len(rets) > 0 && lua.LVAsBool(rets[0])
	})
	if callErr != nil {
		return h.raise(L, callErr)
	}
	return h.done(L, err)
}

func defaultLess(a, b any) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	switch {
	case aNum && bNum:
		return fa < fb
	case aNum != bNum:
		return aNum
	}
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		return sa < sb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Dict methods shadow keys of the same name; use get and set for those.

func (h *Host) dictIndex(L *lua.LState) int {
	d := h.checkDict(L, 1)
	v, _ := d.Get(h.toGo(L.Get(2)))
	L.Push(h.toLua(v))
	return 1
}

func (h *Host) dictNewIndex(L *lua.LState) int {
	d := h.checkDict(L, 1)
	k := h.toGo(L.Get(2))
	if L.Get(3) == lua.LNil {
		if !d.Has(k) {
			return 0
		}
		return h.done(L, d.Delete(k))
	}
	return h.done(L, d.Set(k, h.toGo(L.Get(3))))
}

func (h *Host) dictLen(L *lua.LState) int {
	L.Push(lua.LNumber(h.checkDict(L, 1).Len()))
	return 1
}

func (h *Host) dictGet(L *lua.LState) int {
	d := h.checkDict(L, 1)
	v, _ := d.Get(h.toGo(L.Get(2)))
	L.Push(h.toLua(v))
	return 1
}

func (h *Host) dictHas(L *lua.LState) int {
	d := h.checkDict(L, 1)
	L.Push(lua.LBool(d.Has(h.toGo(L.Get(2)))))
	return 1
}

func (h *Host) dictSet(L *lua.LState) int {
	d := h.checkDict(L, 1)
	return h.done(L, d.Set(h.toGo(L.Get(2)), h.toGo(L.Get(3))))
}

func (h *Host) dictDelete(L *lua.LState) int {
	d := h.checkDict(L, 1)
	return h.done(L, d.Delete(h.toGo(L.Get(2))))
}

func (h *Host) dictPop(L *lua.LState) int {
	d := h.checkDict(L, 1)
	v, err := d.Pop(h.toGo(L.Get(2)))
	return h.pushResult(L, v, err)
}

func (h *Host) dictClear(L *lua.LState) int {
	return h.done(L, h.checkDict(L, 1).Clear())
}

func (h *Host) dictKeys(L *lua.LState) int {
	L.Push(h.toLua(h.checkDict(L, 1).Keys()))
	return 1
}

func (h *Host) dictValues(L *lua.LState) int {
	L.Push(h.toLua(h.checkDict(L, 1).Values()))
	return 1
}

func (h *Host) dictItems(L *lua.LState) int {
	L.Push(h.toLua(h.checkDict(L, 1).Items()))
	return 1
}

func (h *Host) dictUpdate(L *lua.LState) int {
	d := h.checkDict(L, 1)
	return h.done(L, d.Update(h.tableEntries(L.CheckTable(2))...))
}

func (h *Host) refGet(L *lua.LState) int {
	L.Push(h.toLua(h.checkRef(L, 1).Get()))
	return 1
}

func (h *Host) refSet(L *lua.LState) int {
	r := h.checkRef(L, 1)
	return h.done(L, r.Set(h.toGo(L.Get(2))))
}

func (h *Host) refClear(L *lua.LState) int {
	return h.done(L, h.checkRef(L, 1).Clear())
}

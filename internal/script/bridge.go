package script

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/seanpm2001/atom/internal/atom"
)

// toLua converts a Go value. Atoms and containers become userdata, one
// per object, so identity survives round trips.
func (h *Host) toLua(v any) lua.LValue {
	if v == nil || v == atom.Undefined {
		return lua.LNil
	}

	switch x := v.(type) {
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case *atom.Atom:
		if x == nil {
			return lua.LNil
		}
		return h.wrap(x, atomTypeName)
	case *atom.List:
		if x == nil {
			return lua.LNil
		}
		return h.wrap(x, listTypeName)
	case *atom.Dict:
		if x == nil {
			return lua.LNil
		}
		return h.wrap(x, dictTypeName)
	case *atom.Ref:
		if x == nil {
			return lua.LNil
		}
		return h.wrap(x, refTypeName)
	case atom.Change:
		return h.changeTable(x)
	case atom.Span:
		t := h.L.NewTable()
		t.RawSetString("start", lua.LNumber(x.Start+1))
		t.RawSetString("stop", lua.LNumber(x.Stop))
		return t
	case []any:
		t := h.L.NewTable()
		for i, item := range x {
			t.RawSetInt(i+1, h.toLua(item))
		}
		return t
	case []atom.Entry:
		t := h.L.NewTable()
		for _, e := range x {
			t.RawSet(h.toLua(e.Key), h.toLua(e.Value))
		}
		return t
	case error:
		return lua.LString(x.Error())
	}
	return h.reflectToLua(v)
}

func (h *Host) reflectToLua(v any) lua.LValue {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Slice, reflect.Array:
		t := h.L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, h.toLua(rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		t := h.L.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSet(h.toLua(iter.Key().Interface()), h.toLua(iter.Value().Interface()))
		}
		return t
	}
	ud := h.L.NewUserData()
	ud.Value = v
	return ud
}

// wrap returns the userdata for obj, creating it on first use.
func (h *Host) wrap(obj any, typ string) *lua.LUserData {
	if ud, ok := h.objects[obj]; ok {
		return ud
	}
	ud := h.L.NewUserData()
	ud.Value = obj
	h.L.SetMetatable(ud, h.L.GetTypeMetatable(typ))
	h.objects[obj] = ud
	if len(h.objects) >= h.sweepAt {
		h.sweep()
	}
	return ud
}

// sweep drops cached userdata of destroyed atoms and detached
// containers. Scripts still holding them keep working; only identity
// with later conversions is lost.
func (h *Host) sweep() {
	for obj := range h.objects {
		if stale(obj) {
			delete(h.objects, obj)
		}
	}
	h.sweepAt = max(2*len(h.objects), minSweep)
}

func stale(obj any) bool {
	switch x := obj.(type) {
	case *atom.Atom:
		return x.IsDestroyed()
	case interface{ Detached() bool }:
		return x.Detached()
	}
	return false
}

// toGo converts a Lua value. Integral numbers become int, tables become
// []any when they are sequences and map[any]any otherwise, and functions
// are returned unchanged.
func (h *Host) toGo(lv lua.LValue) any {
	return h.toGoVisited(lv, make(map[*lua.LTable]bool))
}

func (h *Host) toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil, *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return number(v)
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		return v.Value
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		if n, ok := sequenceLen(v); ok {
			out := make([]any, n)
			for i := 1; i <= n; i++ {
				out[i-1] = h.toGoVisited(v.RawGetInt(i), visited)
			}
			return out
		}
		return h.tableToMap(v, visited)
	default:
		return lv
	}
}

func number(n lua.LNumber) any {
	f := float64(n)
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int(f)
	}
	return f
}

// sequenceLen reports the length of t when its keys are exactly 1..n.
// The empty table is a sequence.
func sequenceLen(t *lua.LTable) (int, bool) {
	count, maxN := 0, 0
	seq := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != math.Trunc(float64(kn)) || kn < 1 {
			seq = false
			return
		}
		if int(kn) > maxN {
			maxN = int(kn)
		}
	})
	return maxN, seq && count == maxN
}

func (h *Host) tableToMap(t *lua.LTable, visited map[*lua.LTable]bool) map[any]any {
	out := make(map[any]any)
	t.ForEach(func(k, v lua.LValue) {
		// Table keys stay Lua tables; their Go form is not hashable.
		var key any = k
		if _, isTable := k.(*lua.LTable); !isTable {
			key = h.toGoVisited(k, visited)
		}
		out[key] = h.toGoVisited(v, visited)
	})
	return out
}

// tableEntries returns the pairs of t sorted by the printed form of the
// key.
func (h *Host) tableEntries(t *lua.LTable) []atom.Entry {
	var entries []atom.Entry
	t.ForEach(func(k, v lua.LValue) {
		entries = append(entries, atom.Entry{Key: h.toGo(k), Value: h.toGo(v)})
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return fmt.Sprint(entries[i].Key) < fmt.Sprint(entries[j].Key)
	})
	return entries
}

// valueFor converts lv for assignment to m. Tables assigned to dict
// members are always mappings, even when empty or sequence-shaped.
func (h *Host) valueFor(m *atom.Member, lv lua.LValue) any {
	if t, ok := lv.(*lua.LTable); ok && m != nil && m.ValidateMode().Kind() == atom.ValidateDict {
		return h.tableEntries(t)
	}
	return h.toGo(lv)
}

// changeTable converts a change for delivery to a Lua observer.
func (h *Host) changeTable(c atom.Change) *lua.LTable {
	t := h.L.NewTable()
	t.RawSetString("kind", lua.LString(c.Kind.String()))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("object", h.toLua(c.Object))
	t.RawSetString("old", h.toLua(c.Old))
	t.RawSetString("new", h.toLua(c.New))
	if c.Key != nil {
		key := c.Key
		if i, ok := key.(int); ok && c.Kind.IsContainer() && isListChange(c) {
			key = i + 1
		}
		t.RawSetString("key", h.toLua(key))
	}
	return t
}

// isListChange reports whether c was produced by a list, whose integer
// keys are shown 1-based.
func isListChange(c atom.Change) bool {
	if c.Object == nil {
		return false
	}
	m, ok := c.Object.Class().Member(c.Name)
	return ok && m.ValidateMode().Kind() == atom.ValidateList
}

// Package script embeds a sandboxed Lua interpreter that can create and
// drive atoms.
//
// Scripts see a global atom table:
//
//	local p = atom.new("Point")
//	p:observe("x", function(c) print(c.kind, c.old, c.new) end)
//	p.x = 5
//	p.tags:append("a")
//
// Atom userdata exposes members as fields and a fixed set of methods
// (get, set, delete, reset, is_set, observe, unobserve, connect,
// disconnect, emit, destroy, freeze, frozen, destroyed, notify, id,
// class). Methods take precedence over members of the same name; use
// get and set to reach such members. Lists are indexed from 1.
//
// Observers and signal handlers written in Lua run synchronously on the
// goroutine that triggered them. A Host is not safe for concurrent use.
package script

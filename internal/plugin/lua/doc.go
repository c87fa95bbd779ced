// Package lua runs card and atom plugins written in Lua.
//
// A script defines a global render function. Cards receive the env and the
// payload; atoms receive the env, the value and the payload:
//
//	function render(env, payload)
//	  if payload.level == nil then
//	    env.save({level = 1})
//	  end
//	  return string.rep("-", 10)
//	end
//
// The env table carries name and mode fields and the functions save(table),
// remove(), edit() and display(), which forward to the host through
// plugin.Env.
//
// Each plugin owns a sandboxed State. Only the base, table, string and math
// libraries are opened, file loading functions are removed, print goes to
// the logger, and every call runs under a context with a deadline.
//
// LoadDir registers every script under cards/ and atoms/ of a file system.
package lua

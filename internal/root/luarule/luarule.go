// Package luarule compiles user-supplied Lua scripts into root
// predicates, so custom root-detection rules can be configured without
// rebuilding the editor integration.
//
// A rule script must define a global function:
//
//	function match(dir)
//	    return dir:sub(-5) == "/proj"
//	end
//
// Scripts run sandboxed: only the base, string, and table libraries are
// available, and file/chunk loading functions are removed. A script
// error makes the predicate return false, since predicates must be
// total.
package luarule

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/anchor/internal/root"
)

// Errors returned by Compile.
var (
	// ErrNoMatchFunction indicates the script did not define match().
	ErrNoMatchFunction = errors.New("script does not define a match function")

	// ErrRuleClosed indicates the rule was closed.
	ErrRuleClosed = errors.New("rule is closed")
)

// Rule is a compiled Lua root-detection rule.
//
// gopher-lua's LState is not goroutine-safe, so all evaluations are
// serialized through a mutex.
type Rule struct {
	mu     sync.Mutex
	state  *lua.LState
	fn     *lua.LFunction
	closed bool
}

// Compile loads a Lua script and returns the rule it defines. The
// caller owns the rule and must Close it when done.
func Compile(src string) (*Rule, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Open only safe libraries.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open lua library %s: %w", lib.name, err)
		}
	}

	// Remove functions that could be used to load code from disk.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("compile rule: %w", err)
	}

	fn, ok := L.GetGlobal("match").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, ErrNoMatchFunction
	}

	return &Rule{state: L, fn: fn}, nil
}

// Match evaluates the rule against a candidate directory. Evaluation
// errors count as no-match.
func (r *Rule) Match(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	err := r.state.CallByParam(lua.P{
		Fn:      r.fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(dir))
	if err != nil {
		return false
	}

	ret := r.state.Get(-1)
	r.state.Pop(1)
	return lua.LVAsBool(ret)
}

// Predicate adapts the rule to a root.Predicate.
func (r *Rule) Predicate() root.Predicate {
	return r.Match
}

// Close releases the underlying Lua state. A closed rule never matches.
func (r *Rule) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		r.closed = true
		r.state.Close()
	}
}

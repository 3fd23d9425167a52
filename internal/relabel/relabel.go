// Package relabel builds engine.RelabelFunc values for the two
// providers the Map operation is expected to serve: a plain Go
// function and a Lua script. The Lua interpreter is created with
// gopher-lua's default options, so the script has the full set of
// standard libraries; it is not restricted to a sandbox.
package relabel

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/kgh/memscramble/internal/engine"
)

// ErrRelabelScript wraps any failure originating from a Lua relabel script:
// a syntax error, a runtime error, or a relabel function that returned
// a non-string value.
var ErrRelabelScript = errors.New("relabel: script error")

// Func adapts a plain Go string transform into a RelabelFunc that
// never fails.
func Func(f func(label string) string) engine.RelabelFunc {
	return func(label string) (string, error) {
		return f(label), nil
	}
}

// Lua validates script once and returns a RelabelFunc that calls its
// top-level "relabel(label) -> string" function for every label. Each
// invocation runs in a fresh Lua state so the concurrent calls made by
// Board.Map's fan-out (see internal/match/board.go) never share
// interpreter state.
func Lua(script string) (engine.RelabelFunc, error) {
	if _, err := newRelabelState(script); err != nil {
		return nil, err
	}

	return func(label string) (string, error) {
		L, err := newRelabelState(script)
		if err != nil {
			return "", err
		}
		defer L.Close()

		fn := L.GetGlobal("relabel")

		if err := L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lua.LString(label)); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRelabelScript, err)
		}

		ret := L.Get(-1)
		L.Pop(1)
		s, ok := ret.(lua.LString)
		if !ok {
			return "", fmt.Errorf("%w: relabel(%q) did not return a string", ErrRelabelScript, label)
		}
		return string(s), nil
	}, nil
}

// newRelabelState loads script into a fresh interpreter and confirms
// it defines a callable global named "relabel".
func newRelabelState(script string) (*lua.LState, error) {
	L := lua.NewState()
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("%w: %v", ErrRelabelScript, err)
	}
	if fn := L.GetGlobal("relabel"); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%w: script defines no relabel function", ErrRelabelScript)
	}
	return L, nil
}

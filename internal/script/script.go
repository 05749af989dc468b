// Package script runs Lua automation against a machine: reading and
// writing memory, driving pads and reacting to frames.
package script

import (
	"fmt"
	"log"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Host is the machine surface exposed to scripts.
type Host interface {
	Peek(addr uint16) byte
	Poke(addr uint16, v byte)
	SetPad(n int, mask uint16)
	Frames() uint64
}

// Engine owns one Lua state. It is not safe for concurrent use.
type Engine struct {
	L       *lua.LState
	host    Host
	onFrame *lua.LFunction
	stopped bool
}

// New creates an engine with the builtins registered:
//
//	peek(addr) -> byte     poke(addr, v)     pad(n, mask)
//	log(...)               frame() -> n      on_frame(fn)     stop()
func New(host Host) *Engine {
	e := &Engine{L: lua.NewState(), host: host}
	for name, fn := range map[string]lua.LGFunction{
		"peek":     e.peek,
		"poke":     e.poke,
		"pad":      e.pad,
		"log":      e.log,
		"frame":    e.frame,
		"on_frame": e.setOnFrame,
		"stop":     e.stop,
	} {
		e.L.SetGlobal(name, e.L.NewFunction(fn))
	}
	return e
}

// Load creates an engine and runs the script at path.
func Load(path string, host Host) (*Engine, error) {
	e := New(host)
	if err := e.L.DoFile(path); err != nil {
		e.Close()
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return e, nil
}

func (e *Engine) DoString(src string) error { return e.L.DoString(src) }

// Frame calls the on_frame handler, if any, with the frame count.
func (e *Engine) Frame() error {
	if e.onFrame == nil {
		return nil
	}
	err := e.L.CallByParam(lua.P{Fn: e.onFrame, NRet: 0, Protect: true},
		lua.LNumber(e.host.Frames()))
	if err != nil {
		return fmt.Errorf("on_frame: %w", err)
	}
	return nil
}

// Stopped reports whether the script called stop().
func (e *Engine) Stopped() bool { return e.stopped }

func (e *Engine) Close() { e.L.Close() }

func (e *Engine) peek(L *lua.LState) int {
	L.Push(lua.LNumber(e.host.Peek(uint16(L.CheckInt(1)))))
	return 1
}

func (e *Engine) poke(L *lua.LState) int {
	e.host.Poke(uint16(L.CheckInt(1)), byte(L.CheckInt(2)))
	return 0
}

func (e *Engine) pad(L *lua.LState) int {
	n := L.CheckInt(1)
	if n != 1 && n != 2 {
		L.ArgError(1, "pad must be 1 or 2")
	}
	e.host.SetPad(n-1, uint16(L.CheckInt(2)))
	return 0
}

func (e *Engine) log(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.Get(i + 1).String()
	}
	log.Printf("script: %s", strings.Join(parts, " "))
	return 0
}

func (e *Engine) frame(L *lua.LState) int {
	L.Push(lua.LNumber(e.host.Frames()))
	return 1
}

func (e *Engine) setOnFrame(L *lua.LState) int {
	e.onFrame = L.CheckFunction(1)
	return 0
}

func (e *Engine) stop(L *lua.LState) int {
	e.stopped = true
	return 0
}

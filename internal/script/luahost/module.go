package luahost

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/hookchain/internal/value"
)

// ErrModuleClosed is returned when using a module after its state was
// released.
var ErrModuleClosed = errors.New("script module is closed")

// Module is one callback module: a named, sandboxed Lua state.
//
// gopher-lua's LState is not goroutine-safe, so access is serialized. The
// lock is re-entrant per goroutine: a callback may re-enter the engine and
// trigger a nested dispatch whose chain lands back in this same module,
// which must proceed rather than deadlock.
type Module struct {
	name string
	id   uuid.UUID

	mu    sync.Mutex
	owner atomic.Uint64
	depth int

	L      *lua.LState
	closed bool
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// ID returns the module's unique instance id.
func (m *Module) ID() uuid.UUID { return m.id }

// State exposes the underlying Lua state so the host can bind API modules
// into it before any code runs. Callers must not retain it across module
// close.
func (m *Module) State() *lua.LState { return m.L }

// lock acquires the module for the calling goroutine. The goroutine
// already inside the module re-enters without blocking; sync.Mutex alone
// would deadlock a nested call arriving mid-callback.
func (m *Module) lock() {
	g := goid()
	if g != 0 && m.owner.Load() == g {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(g)
	m.depth = 1
}

// unlock releases one level of the re-entrant lock.
func (m *Module) unlock() {
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// DoFile runs a Lua file in the module. Typically called once at load time
// so the module can register its hooks.
func (m *Module) DoFile(path string) error {
	m.lock()
	defer m.unlock()

	if m.closed {
		return ErrModuleClosed
	}
	return m.withRecovery(func() error {
		return m.L.DoFile(path)
	})
}

// DoString runs Lua source in the module.
func (m *Module) DoString(code string) error {
	m.lock()
	defer m.unlock()

	if m.closed {
		return ErrModuleClosed
	}
	return m.withRecovery(func() error {
		return m.L.DoString(code)
	})
}

// call invokes a resolved function with the given values and converts the
// first result back, if any.
func (m *Module) call(fn *lua.LFunction, args ...value.Value) (value.Value, error) {
	m.lock()
	defer m.unlock()

	if m.closed {
		return value.Value{}, ErrModuleClosed
	}

	top := m.L.GetTop()
	m.L.Push(fn)
	for _, arg := range args {
		m.L.Push(toLua(arg))
	}

	err := m.withRecovery(func() error {
		return m.L.PCall(len(args), lua.MultRet, nil)
	})
	if err != nil {
		m.L.SetTop(top)
		return value.Value{}, err
	}

	nret := m.L.GetTop() - top
	if nret <= 0 {
		return value.Value{}, nil
	}
	result := fromLua(m.L.Get(top + 1))
	m.L.SetTop(top)
	return result, nil
}

// close releases the Lua state.
func (m *Module) close() {
	m.lock()
	defer m.unlock()

	if m.closed {
		return
	}
	m.L.Close()
	m.closed = true
}

// withRecovery converts a Lua panic into an error.
func (m *Module) withRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// goid parses the running goroutine's id from its stack header; the
// runtime exposes no direct accessor.
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// toLua converts an engine value for passing into Lua. Opaque references
// have no script representation of their own; scripts see them only as
// resolver indices, so they convert to nil here.
func toLua(v value.Value) lua.LValue {
	switch v.Kind() {
	case value.KindInt:
		n, _ := v.AsInt()
		return lua.LNumber(n)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return lua.LNumber(f)
	case value.KindString:
		s, _ := v.AsString()
		return lua.LString(s)
	default:
		return lua.LNil
	}
}

// fromLua converts a callback result to an engine value. Integral numbers
// become ints, other numbers floats; booleans flatten to 0/1.
func fromLua(lv lua.LValue) value.Value {
	switch v := lv.(type) {
	case lua.LBool:
		if v {
			return value.Int(1)
		}
		return value.Int(0)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return value.Int(int64(f))
		}
		return value.Float(f)
	case lua.LString:
		return value.String(string(v))
	default:
		return value.Value{}
	}
}

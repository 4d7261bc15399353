// Package luahost implements the script.Host collaborator on gopher-lua.
// Each callback module owns its own sandboxed Lua state; the host resolves
// and calls functions across modules on the engine's behalf.
package luahost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/hookchain/internal/script"
	"github.com/dshills/hookchain/internal/value"
)

// ErrModuleExists is returned when loading a module under a name already
// in use.
var ErrModuleExists = errors.New("script module already loaded")

// Host manages callback modules and implements script.Host.
type Host struct {
	mu      sync.Mutex
	log     *zap.Logger
	modules map[string]*Module
}

// New creates an empty host.
func New(log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{
		log:     log,
		modules: make(map[string]*Module),
	}
}

// NewModule creates a named module with a fresh sandboxed Lua state. The
// caller binds any host API into the state before running code in it.
func (h *Host) NewModule(name string) (*Module, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.modules[name]; ok {
		return nil, fmt.Errorf("module %q: %w", name, ErrModuleExists)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	m := &Module{
		name: name,
		id:   uuid.New(),
		L:    L,
	}
	h.modules[name] = m

	h.log.Debug("script module created",
		zap.String("module", name),
		zap.String("instance", m.id.String()))
	return m, nil
}

// Module returns a loaded module by name.
func (h *Host) Module(name string) (*Module, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.modules[name]
	return m, ok
}

// Close releases every module's Lua state.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.modules {
		m.close()
	}
	h.modules = make(map[string]*Module)
}

// FindFunction implements script.Host. The returned ref stays valid for
// the module's lifetime.
func (h *Host) FindFunction(module, name string) (script.FuncRef, error) {
	m, ok := h.Module(module)
	if !ok {
		return nil, fmt.Errorf("module %q: %w", module, script.ErrModuleNotFound)
	}

	m.lock()
	defer m.unlock()

	fn := m.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%s.%s: %w", module, name, script.ErrFunctionNotFound)
	}

	return &funcRef{module: module, name: name, fn: fn.(*lua.LFunction)}, nil
}

// Call implements script.Host. The callback runs to completion on the
// calling goroutine; Lua panics are recovered and reported as errors so a
// broken callback cannot take down a dispatch.
func (h *Host) Call(ref script.FuncRef, args ...value.Value) (value.Value, error) {
	fr, ok := ref.(*funcRef)
	if !ok || fr == nil {
		return value.Value{}, fmt.Errorf("foreign function ref: %w", script.ErrFunctionNotFound)
	}

	m, found := h.Module(fr.module)
	if !found {
		return value.Value{}, fmt.Errorf("module %q: %w", fr.module, script.ErrModuleNotFound)
	}

	return m.call(fr.fn, args...)
}

// funcRef is a resolved Lua function.
type funcRef struct {
	module string
	name   string
	fn     *lua.LFunction
}

// Module implements script.FuncRef.
func (r *funcRef) Module() string { return r.module }

// Name implements script.FuncRef.
func (r *funcRef) Name() string { return r.name }

// openSafeLibraries opens only the Lua standard libraries callback code may
// use. io, os, debug and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

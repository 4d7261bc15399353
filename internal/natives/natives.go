// Package natives exposes the hook-chain API to Lua callback modules: a
// global "hooks" table with registration, enable/disable and value-access
// functions plus the kind constants.
//
// Every failure is written to the host's diagnostic channel with the
// offending operation and reason, and surfaced to the script as a falsy or
// sentinel return. No error ever propagates across the boundary as a Lua
// exception; malformed argument lists degrade the same way.
package natives

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/dispatch"
	"github.com/dshills/hookchain/internal/hook"
	"github.com/dshills/hookchain/internal/script"
	"github.com/dshills/hookchain/internal/value"
)

// Config wires the API surface to the engine.
type Config struct {
	Catalog  catalog.Catalog
	Registry *hook.Registry
	Driver   *dispatch.Driver
	Host     script.Host
	Resolver catalog.Resolver
	Logger   *zap.Logger
}

// API binds the registrant-facing surface into Lua states.
type API struct {
	cat      catalog.Catalog
	reg      *hook.Registry
	driver   *dispatch.Driver
	host     script.Host
	resolver catalog.Resolver
	log      *zap.Logger
}

// New creates the API surface.
func New(cfg Config) *API {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		cat:      cfg.Catalog,
		reg:      cfg.Registry,
		driver:   cfg.Driver,
		host:     cfg.Host,
		resolver: cfg.Resolver,
		log:      log,
	}
}

// Bind installs the "hooks" table into L on behalf of the named callback
// module. The module name identifies the registrant; callbacks named in
// register calls are resolved inside it.
func (a *API) Bind(L *lua.LState, module string) {
	mod := L.NewTable()

	L.SetField(mod, "register", L.NewFunction(a.register(module)))
	L.SetField(mod, "set_enabled", L.NewFunction(a.setEnabled))
	L.SetField(mod, "get_arg", L.NewFunction(a.getArg))
	L.SetField(mod, "set_arg", L.NewFunction(a.setArg))
	L.SetField(mod, "get_return", L.NewFunction(a.getReturn))
	L.SetField(mod, "set_return", L.NewFunction(a.setReturn))

	// Kind constants match the engine's closed tag set.
	L.SetField(mod, "INT", lua.LNumber(value.KindInt))
	L.SetField(mod, "FLOAT", lua.LNumber(value.KindFloat))
	L.SetField(mod, "STRING", lua.LNumber(value.KindString))
	L.SetField(mod, "CLASS", lua.LNumber(value.KindClass))
	L.SetField(mod, "ENTITY", lua.LNumber(value.KindEntity))
	L.SetField(mod, "DATA", lua.LNumber(value.KindData))

	// INVALID_HANDLE is the sentinel every failed register returns.
	L.SetField(mod, "INVALID_HANDLE", lua.LNumber(hook.InvalidHandle))

	L.SetGlobal("hooks", mod)
}

// register(function_name, callback_name, post?) -> handle
// Returns INVALID_HANDLE when the function is unknown to the catalog
// build, its required companion component is absent, the callback cannot
// be resolved in the registering module, or the call itself is malformed.
func (a *API) register(module string) lua.LGFunction {
	return func(L *lua.LState) int {
		fail := func(msg string, fields ...zap.Field) int {
			a.log.Error(msg, append(fields, zap.String("module", module))...)
			L.Push(lua.LNumber(hook.InvalidHandle))
			return 1
		}

		name, err := luaString(L, 1)
		if err != nil {
			return fail("hooks.register: malformed call", zap.Error(err))
		}
		callback, err := luaString(L, 2)
		if err != nil {
			return fail("hooks.register: malformed call", zap.Error(err))
		}
		post := false
		if L.GetTop() >= 3 {
			if post, err = luaBool(L, 3); err != nil {
				return fail("hooks.register: malformed call", zap.Error(err))
			}
		}

		id, ok := a.cat.ResolveFunctionID(name)
		if !ok {
			return fail("hooks.register: function doesn't exist in current API version",
				zap.String("function", name))
		}

		ref, err := a.host.FindFunction(module, callback)
		if err != nil {
			return fail("hooks.register: callback function not found",
				zap.String("function", name),
				zap.String("callback", callback),
				zap.Error(err))
		}

		phase := hook.PhasePre
		if post {
			phase = hook.PhasePost
		}

		handle, err := a.reg.Register(id, phase, module, ref)
		if err != nil {
			return fail("hooks.register: registration rejected",
				zap.String("function", name),
				zap.Error(err))
		}

		L.Push(lua.LNumber(handle))
		return 1
	}
}

// set_enabled(handle, enabled) -> bool
func (a *API) setEnabled(L *lua.LState) int {
	raw, err := luaInt(L, 1)
	if err == nil {
		var enabled bool
		if enabled, err = luaBool(L, 2); err == nil {
			err = a.reg.SetEnabled(hook.Handle(raw), enabled)
		}
	}
	if err != nil {
		a.log.Error("hooks.set_enabled: invalid hookchain handle",
			zap.Int64("handle", raw),
			zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	L.Push(lua.LTrue)
	return 1
}

// get_arg(slot, kind) -> value | nil
// Slots are 1-based at the script surface.
func (a *API) getArg(L *lua.LState) int {
	slot, err := luaInt(L, 1)
	if err != nil {
		a.log.Error("hooks.get_arg: malformed call", zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}
	kind, err := luaKind(L, 2)
	if err != nil {
		a.log.Error("hooks.get_arg: malformed call", zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}

	inv, err := a.driver.Current()
	if err != nil {
		a.log.Error("hooks.get_arg: no active hook", zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}

	v, err := inv.Arg(int(slot)-1, kind)
	if err != nil {
		a.log.Error("hooks.get_arg: argument access rejected",
			zap.String("function", inv.Function()),
			zap.Int64("slot", slot),
			zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}

	L.Push(a.pushable(v))
	return 1
}

// set_arg(slot, kind, value) -> bool
func (a *API) setArg(L *lua.LState) int {
	slot, err := luaInt(L, 1)
	if err != nil {
		a.log.Error("hooks.set_arg: malformed call", zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}
	kind, err := luaKind(L, 2)
	if err != nil {
		a.log.Error("hooks.set_arg: malformed call", zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	inv, err := a.driver.Current()
	if err != nil {
		a.log.Error("hooks.set_arg: no active hook", zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	v, err := a.valueArg(L, 3, kind)
	if err != nil {
		a.log.Error("hooks.set_arg: bad value",
			zap.String("function", inv.Function()),
			zap.Int64("slot", slot),
			zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	if err := inv.SetArg(int(slot)-1, kind, v); err != nil {
		a.log.Error("hooks.set_arg: argument write rejected",
			zap.String("function", inv.Function()),
			zap.Int64("slot", slot),
			zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	L.Push(lua.LTrue)
	return 1
}

// get_return(kind [, maxlen]) -> value | nil
// Strings require maxlen: conveying text needs caller-supplied capacity,
// and the result is truncated to it.
func (a *API) getReturn(L *lua.LState) int {
	kind, err := luaKind(L, 1)
	if err != nil {
		a.log.Error("hooks.get_return: malformed call", zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}

	inv, err := a.driver.Current()
	if err != nil {
		a.log.Error("hooks.get_return: no active hook", zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}

	var maxlen int64
	if kind == value.KindString {
		if L.GetTop() < 2 {
			a.log.Error("hooks.get_return: no output capacity for string value",
				zap.String("function", inv.Function()),
				zap.Error(dispatch.ErrNoCapacity))
			L.Push(lua.LNil)
			return 1
		}
		if maxlen, err = luaInt(L, 2); err != nil {
			a.log.Error("hooks.get_return: malformed call",
				zap.String("function", inv.Function()),
				zap.Error(err))
			L.Push(lua.LNil)
			return 1
		}
	}

	v, err := inv.Return(kind)
	if err != nil {
		a.log.Error("hooks.get_return: return value isn't set",
			zap.String("function", inv.Function()),
			zap.Error(err))
		L.Push(lua.LNil)
		return 1
	}

	if kind == value.KindString {
		s, _ := v.AsString()
		if maxlen >= 0 && int64(len(s)) > maxlen {
			s = s[:maxlen]
		}
		L.Push(lua.LString(s))
		return 1
	}

	L.Push(a.pushable(v))
	return 1
}

// set_return(kind, value) -> bool
func (a *API) setReturn(L *lua.LState) int {
	kind, err := luaKind(L, 1)
	if err != nil {
		a.log.Error("hooks.set_return: malformed call", zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	inv, err := a.driver.Current()
	if err != nil {
		a.log.Error("hooks.set_return: trying to set return value without active hook",
			zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	v, err := a.valueArg(L, 2, kind)
	if err != nil {
		a.log.Error("hooks.set_return: bad value",
			zap.String("function", inv.Function()),
			zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	if err := inv.SetReturn(kind, v); err != nil {
		a.log.Error("hooks.set_return: return write rejected",
			zap.String("function", inv.Function()),
			zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}

	L.Push(lua.LTrue)
	return 1
}

// valueArg converts the Lua argument at position n into an engine value of
// the requested kind. Opaque kinds arrive as resolver indices.
func (a *API) valueArg(L *lua.LState, n int, kind value.Kind) (value.Value, error) {
	switch kind {
	case value.KindInt:
		i, err := luaInt(L, n)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(i), nil
	case value.KindFloat:
		f, err := luaNumber(L, n)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(f), nil
	case value.KindString:
		s, err := luaString(L, n)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case value.KindClass:
		idx, err := luaInt(L, n)
		if err != nil {
			return value.Value{}, err
		}
		ref, err := a.resolver.ResolveClass(idx)
		if err != nil {
			return value.Value{}, err
		}
		return value.ClassRef(ref), nil
	case value.KindEntity:
		idx, err := luaInt(L, n)
		if err != nil {
			return value.Value{}, err
		}
		ref, err := a.resolver.ResolveEntity(idx)
		if err != nil {
			return value.Value{}, err
		}
		return value.EntityRef(ref), nil
	default:
		idx, err := luaInt(L, n)
		if err != nil {
			return value.Value{}, err
		}
		ref, err := a.resolver.ResolveData(idx)
		if err != nil {
			return value.Value{}, err
		}
		return value.DataRef(ref), nil
	}
}

// pushable converts an engine value for returning into Lua. Opaque
// references convert back to their resolver index; an unregistered
// reference pushes nil after logging.
func (a *API) pushable(v value.Value) lua.LValue {
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
	case value.KindClass, value.KindEntity, value.KindData:
		ref, _ := v.AsRef()
		idx, err := a.resolver.IndexOf(ref)
		if err != nil {
			a.log.Error("hooks: reference has no index", zap.Error(err))
			return lua.LNil
		}
		return lua.LNumber(idx)
	default:
		return lua.LNil
	}
}

// luaInt reads an integer at position n without raising.
func luaInt(L *lua.LState, n int) (int64, error) {
	if v, ok := L.Get(n).(lua.LNumber); ok {
		return int64(v), nil
	}
	return 0, fmt.Errorf("argument %d expects a number: %w", n, ErrBadArgument)
}

// luaNumber reads a float at position n without raising.
func luaNumber(L *lua.LState, n int) (float64, error) {
	if v, ok := L.Get(n).(lua.LNumber); ok {
		return float64(v), nil
	}
	return 0, fmt.Errorf("argument %d expects a number: %w", n, ErrBadArgument)
}

// luaString reads text at position n without raising. Numbers convert the
// way Lua's own string coercion does.
func luaString(L *lua.LState, n int) (string, error) {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return v.String(), nil
	default:
		return "", fmt.Errorf("argument %d expects a string: %w", n, ErrBadArgument)
	}
}

// luaBool reads a boolean at position n without raising.
func luaBool(L *lua.LState, n int) (bool, error) {
	if v, ok := L.Get(n).(lua.LBool); ok {
		return bool(v), nil
	}
	return false, fmt.Errorf("argument %d expects a boolean: %w", n, ErrBadArgument)
}

// luaKind reads and validates a kind constant at position n.
func luaKind(L *lua.LState, n int) (value.Kind, error) {
	raw, err := luaInt(L, n)
	if err != nil {
		return value.KindInvalid, err
	}
	k := value.Kind(raw)
	if !k.Valid() {
		return value.KindInvalid, fmt.Errorf("argument %d: unknown kind constant %d: %w", n, raw, ErrBadArgument)
	}
	return k, nil
}

// Package lua hosts the optional user script that handles event names the
// controller does not know. The VM is only touched from the control goroutine.
package lua

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dialight/internal/lua/modules"
	"github.com/dokzlo13/dialight/internal/protocol"
)

// EventHook is the global function a script defines to receive events:
//
//	function on_event(name, value) ... end
const EventHook = "on_event"

// Runtime wraps a single Lua state.
type Runtime struct {
	L    *lua.LState
	hook *lua.LFunction
}

// NewRuntime creates a VM with the log and light modules preloaded.
func NewRuntime(ctl modules.LightControl) *Runtime {
	L := lua.NewState()

	L.PreloadModule("log", modules.NewLogModule().Loader)
	L.PreloadModule("light", modules.NewLightModule(ctl).Loader)

	return &Runtime{L: L}
}

// LoadScript runs the script at path and picks up its event hook.
func (r *Runtime) LoadScript(path string) error {
	log.Info().Str("path", path).Msg("Loading Lua script")
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}
	return r.bindHook()
}

// LoadString runs script source directly.
func (r *Runtime) LoadString(src string) error {
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("failed to execute Lua source: %w", err)
	}
	return r.bindHook()
}

func (r *Runtime) bindHook() error {
	switch fn := r.L.GetGlobal(EventHook).(type) {
	case *lua.LFunction:
		r.hook = fn
		log.Info().Str("hook", EventHook).Msg("Lua event hook registered")
	case *lua.LNilType:
		log.Warn().Str("hook", EventHook).Msg("Lua script defines no event hook")
	default:
		return fmt.Errorf("%s must be a function, got %s", EventHook, fn.Type())
	}
	return nil
}

// HasHook reports whether a script registered an event hook.
func (r *Runtime) HasHook() bool {
	return r.hook != nil
}

// HandleEvent passes ev to the script's hook. Script errors are logged.
func (r *Runtime) HandleEvent(ctx context.Context, ev protocol.Event) {
	if r.hook == nil {
		return
	}

	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	err := r.L.CallByParam(lua.P{
		Fn:      r.hook,
		NRet:    0,
		Protect: true,
	}, lua.LString(ev.Name), lua.LNumber(ev.Value))
	if err != nil {
		log.Error().Err(err).Str("name", ev.Name).Int("value", ev.Value).Msg("Lua event hook failed")
	}
}

// Close closes the Lua state.
func (r *Runtime) Close() {
	r.L.Close()
}

package modules

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dialight/internal/light"
)

// LightControl is the part of the controller scripts may drive.
type LightControl interface {
	State() light.State
	Toggle(ctx context.Context)
	RotateBrightness(ctx context.Context, detents int) bool
	RotateKelvin(ctx context.Context, detents int) bool
}

// LightModule exposes the dimmer to scripts:
//
//	local light = require("light")
//	light.state()        -- {on = true, brightness = 0.3, kelvin = 4000}
//	light.toggle()
//	light.brightness(2)  -- rotate by detents, returns true if changed
//	light.kelvin(-1)
type LightModule struct {
	ctl LightControl
}

// NewLightModule creates a light module bound to ctl.
func NewLightModule(ctl LightControl) *LightModule {
	return &LightModule{ctl: ctl}
}

// Loader is the module loader for Lua
func (m *LightModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "state", L.NewFunction(m.state))
	L.SetField(mod, "toggle", L.NewFunction(m.toggle))
	L.SetField(mod, "brightness", L.NewFunction(m.brightness))
	L.SetField(mod, "kelvin", L.NewFunction(m.kelvin))

	L.Push(mod)
	return 1
}

func (m *LightModule) state(L *lua.LState) int {
	st := m.ctl.State()

	tbl := L.NewTable()
	L.SetField(tbl, "on", lua.LBool(st.On))
	L.SetField(tbl, "brightness", lua.LNumber(st.Brightness))
	L.SetField(tbl, "kelvin", lua.LNumber(st.Kelvin))

	L.Push(tbl)
	return 1
}

func (m *LightModule) toggle(L *lua.LState) int {
	m.ctl.Toggle(luaContext(L))
	return 0
}

func (m *LightModule) brightness(L *lua.LState) int {
	changed := m.ctl.RotateBrightness(luaContext(L), L.CheckInt(1))
	L.Push(lua.LBool(changed))
	return 1
}

func (m *LightModule) kelvin(L *lua.LState) int {
	changed := m.ctl.RotateKelvin(luaContext(L), L.CheckInt(1))
	L.Push(lua.LBool(changed))
	return 1
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

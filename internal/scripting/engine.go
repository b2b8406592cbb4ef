package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
)

// Engine wraps a single gopher-lua VM holding the game-specific perception
// rules. It implements senses.Filter.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	// hooks resolved once after loading; LNil when a script does not define them
	shouldSee  lua.LValue
	shouldHear lua.LValue

	errors int
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: core/ first, then senses/. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.registerAPI()

	for _, sub := range []string{"core", "senses"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	e.resolveHooks()
	return e, nil
}

// NewEngineFromString builds an engine from inline source. Used by tools and
// tests that do not ship a scripts directory.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e := &Engine{vm: vm, log: log}
	e.registerAPI()
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load inline script: %w", err)
	}
	e.resolveHooks()
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) resolveHooks() {
	e.shouldSee = e.vm.GetGlobal("should_see")
	e.shouldHear = e.vm.GetGlobal("should_hear")
	if e.shouldSee == lua.LNil {
		e.log.Info("lua should_see not defined, sight unfiltered")
	}
	if e.shouldHear == lua.LNil {
		e.log.Info("lua should_hear not defined, hearing unfiltered")
	}
}

// registerAPI exposes the helpers scripts may call.
func (e *Engine) registerAPI() {
	e.vm.SetGlobal("sound_has", e.vm.NewFunction(func(L *lua.LState) int {
		typ := sound.Type(L.CheckInt64(1))
		name := L.CheckString(2)
		mask, ok := sound.ParseType(name)
		L.Push(lua.LBool(ok && typ.Is(mask)))
		return 1
	}))
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// Errors is the number of script failures since the engine was created.
func (e *Engine) Errors() int { return e.errors }

// QuerySeeEntity calls should_see(agent, target). Missing hook, script error
// or a non-boolean result all mean "allow".
func (e *Engine) QuerySeeEntity(agent, target senses.Body) bool {
	if e.shouldSee == lua.LNil {
		return true
	}
	return e.callBool("should_see", e.shouldSee, e.bodyTable(agent), e.bodyTable(target))
}

// QueryHearSound calls should_hear(agent, sound) with the same fallbacks as
// QuerySeeEntity.
func (e *Engine) QueryHearSound(agent senses.Body, s *sound.Sound) bool {
	if e.shouldHear == lua.LNil {
		return true
	}
	return e.callBool("should_hear", e.shouldHear, e.bodyTable(agent), e.soundTable(s))
}

func (e *Engine) callBool(name string, fn lua.LValue, args ...lua.LValue) bool {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.errors++
		e.log.Error("lua "+name+" error", zap.Error(err))
		return true
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	b, ok := result.(lua.LBool)
	if !ok {
		e.errors++
		e.log.Error("lua "+name+" returned non-boolean", zap.String("type", result.Type().String()))
		return true
	}
	return bool(b)
}

func (e *Engine) bodyTable(b senses.Body) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(b.ID.Index()))
	t.RawSetString("kind", lua.LString(b.Kind.String()))
	t.RawSetString("class", lua.LString(b.Class))
	t.RawSetString("x", lua.LNumber(b.Origin.X))
	t.RawSetString("y", lua.LNumber(b.Origin.Y))
	t.RawSetString("z", lua.LNumber(b.Origin.Z))
	t.RawSetString("alive", lua.LBool(b.Alive))
	return t
}

func (e *Engine) soundTable(s *sound.Sound) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("type", lua.LNumber(s.Type))
	t.RawSetString("type_name", lua.LString(s.Type.String()))
	t.RawSetString("priority", lua.LNumber(s.Priority))
	t.RawSetString("volume", lua.LNumber(s.Volume))
	t.RawSetString("owner", lua.LNumber(s.Owner.Index()))
	t.RawSetString("scent", lua.LBool(s.IsScent()))
	t.RawSetString("x", lua.LNumber(s.Origin.X))
	t.RawSetString("y", lua.LNumber(s.Origin.Y))
	t.RawSetString("z", lua.LNumber(s.Origin.Z))
	return t
}

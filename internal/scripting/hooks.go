package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// CitySnapshot is the plain-value view of a city passed to scoring hooks.
// Hooks never see live game objects.
type CitySnapshot struct {
	Size           int
	FoodSurplus    int
	ShieldSurplus  int
	TradeTotal     int
	PollutionTotal int
	Unhappy        int
	Celebrating    bool
}

// Hooks owns one sandboxed LState loaded with ruleset script files and
// dispatches named scoring functions against city snapshots.
//
// The LState is single-threaded; the mutex serializes concurrent calls.
type Hooks struct {
	mu     sync.Mutex
	state  *lua.LState
	logger *zap.Logger
}

// NewHooks creates an empty Hooks manager.
//
// Precondition: logger must be non-nil.
func NewHooks(logger *zap.Logger) *Hooks {
	if logger == nil {
		panic("scripting.NewHooks: precondition violated: logger must be non-nil")
	}
	return &Hooks{state: NewSandboxedState(0), logger: logger}
}

// LoadDir loads every *.lua file in dir into the hook VM, in sorted name
// order so later files may override earlier definitions deterministically.
//
// Precondition: dir must be a readable directory.
func (h *Hooks) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting.LoadDir: reading %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, name := range names {
		if err := h.state.DoFile(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("scripting.LoadDir: executing %s: %w", name, err)
		}
		h.logger.Debug("loaded hook script", zap.String("file", name))
	}
	return nil
}

// LoadString executes a script snippet in the hook VM. Intended for tests
// and inline ruleset scripts.
func (h *Hooks) LoadString(src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return fmt.Errorf("scripting.LoadString: hooks closed")
	}
	if err := h.state.DoString(src); err != nil {
		return fmt.Errorf("scripting.LoadString: %w", err)
	}
	return nil
}

// Defined reports whether a global function with the given name exists.
func (h *Hooks) Defined(hook string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != nil && h.state.GetGlobal(hook).Type() == lua.LTFunction
}

// Score calls the named hook with the city snapshot and returns its numeric
// result. Missing hooks and Lua failures both yield (0, false): scripted
// scoring degrades to "no opinion", never to an advisor error.
func (h *Hooks) Score(hook string, snap CitySnapshot) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return 0, false
	}

	fn := h.state.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return 0, false
	}

	tbl := h.state.NewTable()
	h.state.SetField(tbl, "size", lua.LNumber(snap.Size))
	h.state.SetField(tbl, "food_surplus", lua.LNumber(snap.FoodSurplus))
	h.state.SetField(tbl, "shield_surplus", lua.LNumber(snap.ShieldSurplus))
	h.state.SetField(tbl, "trade_total", lua.LNumber(snap.TradeTotal))
	h.state.SetField(tbl, "pollution", lua.LNumber(snap.PollutionTotal))
	h.state.SetField(tbl, "unhappy", lua.LNumber(snap.Unhappy))
	h.state.SetField(tbl, "celebrating", lua.LBool(snap.Celebrating))

	if err := h.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, tbl); err != nil {
		h.logger.Warn("scoring hook failed", zap.String("hook", hook), zap.Error(err))
		return 0, false
	}
	ret := h.state.Get(-1)
	h.state.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		h.logger.Warn("scoring hook returned non-number", zap.String("hook", hook))
		return 0, false
	}
	return int(n), true
}

// Close releases the hook VM. Idempotent.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != nil {
		h.state.Close()
		h.state = nil
	}
}

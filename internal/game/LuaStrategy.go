package game

import (
	"context"
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

const luaEntryPoint = "next_direction"

var ErrLuaEntryPointMissing = errors.New("lua strategy must define function " + luaEntryPoint)

// DefaultLuaStrategy chases the food along the shorter wrapped axis and steers around its own body.
const DefaultLuaStrategy = `
local moves = {UP = {0, -1}, DOWN = {0, 1}, LEFT = {-1, 0}, RIGHT = {1, 0}}
local opposite = {UP = "DOWN", DOWN = "UP", LEFT = "RIGHT", RIGHT = "LEFT"}

local function toward(from, to, size)
	local d = to - from
	if d > size / 2 then
		d = d - size
	elseif d < -size / 2 then
		d = d + size
	end
	return d
end

local function blocked(obs, name)
	local head = obs.snake[1]
	local m = moves[name]
	local x = (head.x + m[1]) % obs.width
	local y = (head.y + m[2]) % obs.height
	for i = 3, #obs.snake do
		local s = obs.snake[i]
		if s.x == x and s.y == y then
			return true
		end
	end
	return false
end

function next_direction(obs)
	local head = obs.snake[1]
	local dx = toward(head.x, obs.food.x, obs.width)
	local dy = toward(head.y, obs.food.y, obs.height)

	local order = {}
	if dx > 0 then table.insert(order, "RIGHT") elseif dx < 0 then table.insert(order, "LEFT") end
	if dy > 0 then table.insert(order, "DOWN") elseif dy < 0 then table.insert(order, "UP") end
	if #order == 2 and math.abs(dy) > math.abs(dx) then
		order[1], order[2] = order[2], order[1]
	end
	for _, name in ipairs({"UP", "DOWN", "LEFT", "RIGHT"}) do
		table.insert(order, name)
	end

	for _, name in ipairs(order) do
		local reverse = #obs.snake > 1 and opposite[obs.direction] == name
		if not reverse and not blocked(obs, name) then
			return name
		end
	end
	return nil
end
`

// LuaStrategy runs a script defining next_direction(obs). The function may return a direction
// name, a {Dx=..., Dy=...} table, or nil to keep going straight.
type LuaStrategy struct {
	StrategyName string
	luaState     *lua.LState
	entryPoint   lua.LValue
}

func NewLuaStrategy(name, definition string) (*LuaStrategy, error) {
	luaState := lua.NewState()
	if err := luaState.DoString(definition); err != nil {
		luaState.Close()
		return nil, fmt.Errorf("could not parse lua strategy %q: %w", name, err)
	}

	entryPoint := luaState.GetGlobal(luaEntryPoint)
	if entryPoint.Type() != lua.LTFunction {
		luaState.Close()
		return nil, fmt.Errorf("%q: %w", name, ErrLuaEntryPointMissing)
	}

	return &LuaStrategy{
		StrategyName: name,
		luaState:     luaState,
		entryPoint:   entryPoint,
	}, nil
}

// LoadLuaStrategy reads the script at path, or falls back to DefaultLuaStrategy when path is empty.
func LoadLuaStrategy(path string) (*LuaStrategy, error) {
	if path == "" {
		return NewLuaStrategy("default", DefaultLuaStrategy)
	}
	definition, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lua strategy: %w", err)
	}
	return NewLuaStrategy(path, string(definition))
}

func (ls *LuaStrategy) NextDirection(ctx context.Context, obs Observation) (Direction, error) {
	ls.luaState.SetContext(ctx)
	defer ls.luaState.RemoveContext()

	err := ls.luaState.CallByParam(lua.P{
		Fn:      ls.entryPoint,
		NRet:    1,
		Protect: true,
	}, ls.observationTable(obs))
	if err != nil {
		return NoChange, fmt.Errorf("could not execute lua strategy %q: %w", ls.StrategyName, err)
	}

	luaReturn := ls.luaState.Get(-1)
	ls.luaState.Pop(1)

	switch luaReturn.Type() {
	case lua.LTNil:
		return NoChange, nil
	case lua.LTString:
		dir, ok := ParseDirection(lua.LVAsString(luaReturn))
		if !ok {
			return NoChange, fmt.Errorf("lua strategy %q returned unknown direction %q", ls.StrategyName, lua.LVAsString(luaReturn))
		}
		return dir, nil
	case lua.LTTable:
		dir := convertLuaDirectionTableToGoStruct(luaReturn.(*lua.LTable))
		if !dir.IsValid() {
			return NoChange, fmt.Errorf("lua strategy %q returned invalid vector %+v", ls.StrategyName, dir)
		}
		return dir, nil
	default:
		return NoChange, fmt.Errorf("lua strategy %q returned %s, expected string or table", ls.StrategyName, luaReturn.Type())
	}
}

func (ls *LuaStrategy) Close() {
	ls.luaState.Close()
}

func (ls *LuaStrategy) observationTable(obs Observation) *lua.LTable {
	L := ls.luaState
	tbl := L.NewTable()

	snake := L.NewTable()
	for _, segment := range obs.Snake {
		snake.Append(ls.pointTable(segment))
	}
	tbl.RawSetString("snake", snake)
	tbl.RawSetString("food", ls.pointTable(obs.Food))
	tbl.RawSetString("width", lua.LNumber(obs.Width))
	tbl.RawSetString("height", lua.LNumber(obs.Height))
	tbl.RawSetString("direction", lua.LString(obs.PrevDirection.String()))
	tbl.RawSetString("score", lua.LNumber(obs.Score))
	return tbl
}

func (ls *LuaStrategy) pointTable(p Point) *lua.LTable {
	pt := ls.luaState.NewTable()
	pt.RawSetString("x", lua.LNumber(p.X))
	pt.RawSetString("y", lua.LNumber(p.Y))
	return pt
}

func convertLuaDirectionTableToGoStruct(luaTbl *lua.LTable) Direction {
	result := Direction{}
	luaTbl.ForEach(func(key, value lua.LValue) {
		if key.Type() != lua.LTString {
			return
		}

		switch lua.LVAsString(key) {
		case "Dy":
			result.Dy = int(lua.LVAsNumber(value))
		case "Dx":
			result.Dx = int(lua.LVAsNumber(value))
		}
	})
	return result
}

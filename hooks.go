package krb5keep

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// HookEngine runs optional Lua scripts after credential lifecycle events.
// Each execution gets a fresh isolated Lua state with the krb5keep module
// registered and the triggering event exposed as a global table.
type HookEngine struct {
	scriptsDir string
}

// NewHookEngine prepares the scripts directory and returns the engine.
func NewHookEngine() (*HookEngine, error) {
	dir := ScriptsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scripts directory: %w", err)
	}
	return &HookEngine{scriptsDir: dir}, nil
}

// RunHook executes a hook script with the event name and fields available
// as the global "event" table. A missing script name is a no-op; a script
// error is logged and returned.
func (e *HookEngine) RunHook(scriptName, event string, fields map[string]string) error {
	if scriptName == "" {
		return nil
	}
	scriptPath := ScriptPath(scriptName)
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return fmt.Errorf("hook script not found: %s", scriptPath)
	}

	// Fresh state per execution (isolation)
	L := lua.NewState()
	defer L.Close()

	registerHookModule(L)

	ev := L.NewTable()
	L.SetField(ev, "name", lua.LString(event))
	for k, v := range fields {
		L.SetField(ev, k, lua.LString(v))
	}
	L.SetGlobal("event", ev)

	if err := L.DoFile(scriptPath); err != nil {
		LogError("Hook script %s failed: %v", scriptName, err)
		return fmt.Errorf("hook script error: %w", err)
	}
	LogAction("hook_executed", fmt.Sprintf("Hook executed: %s (%s)", scriptName, event))
	return nil
}

// registerHookModule registers the krb5keep Lua module
func registerHookModule(L *lua.LState) {
	mod := L.NewTable()

	L.SetField(mod, "log", L.NewFunction(luaLog))
	L.SetField(mod, "env", L.NewFunction(luaEnv))
	L.SetField(mod, "exec", L.NewFunction(luaExec))
	L.SetField(mod, "shell", L.NewFunction(luaShell))
	L.SetField(mod, "sleep", L.NewFunction(luaSleep))

	L.SetGlobal("krb5keep", mod)
}

// Lua function implementations

// luaLog writes to the process log: krb5keep.log(message)
func luaLog(L *lua.LState) int {
	message := L.CheckString(1)
	LogInfo("hook: %s", message)
	return 0
}

// luaEnv reads an environment variable: krb5keep.env(name) -> value
func luaEnv(L *lua.LState) int {
	name := L.CheckString(1)
	L.Push(lua.LString(os.Getenv(name)))
	return 1
}

// luaExec executes a command and returns output: krb5keep.exec(cmd, args...) -> output, error
func luaExec(L *lua.LState) int {
	cmdName := L.CheckString(1)
	var args []string
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, L.CheckString(i))
	}

	cmd := exec.Command(cmdName, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		L.Push(lua.LString(string(output)))
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(string(output)))
	return 1
}

// luaShell executes a shell command: krb5keep.shell(command) -> output, error
func luaShell(L *lua.LState) int {
	command := L.CheckString(1)

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		L.Push(lua.LString(string(output)))
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(string(output)))
	return 1
}

// luaSleep pauses the script: krb5keep.sleep(milliseconds)
func luaSleep(L *lua.LState) int {
	ms := L.CheckInt(1)
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return 0
}

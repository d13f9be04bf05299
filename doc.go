// Package minhook manages inline function hooks: a target function is
// redirected to a detour while a trampoline keeps the original behaviour
// callable.
//
// A Registry owns the hooks created through it. Hooks are created disabled and
// are toggled one at a time with Hook.Enable and Hook.Disable, all at once with
// Registry.EnableAll and Registry.DisableAll, or in batches: QueueEnable and
// QueueDisable record an intent per target, the last one winning, and
// ApplyQueued commits them with a single engine call.
//
// The code patching itself is done by an engine.Engine. The native engine
// rewrites amd64 machine code; the table engine routes calls to functions
// declared with table.Declare through a swappable cell and works everywhere.
//
//	eng := table.New()
//	add := table.Declare(eng, func(a, b int) int { return a + b })
//	mul := table.Declare(eng, func(a, b int) int { return a * b })
//
//	r := minhook.NewRegistry(eng)
//	h, err := r.Create(add.Addr(), mul.Addr())
//	if err != nil {
//		return err
//	}
//	_ = h.Enable()
//	add.Call()(2, 3) // 6
//
// The package level functions work on a process-wide registry configured
// from MINHOOK_* environment variables, see LoadConfig.
package minhook

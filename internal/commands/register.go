// Package commands implements the built-in command handlers the evaluator
// dispatches script calls to: project metadata, target declaration and
// property propagation, directory-scoped directives, control flow wiring,
// string/list/math expression commands, file I/O, compiler/toolchain
// probes, testing and packaging, CTest script mode, and the file API.
package commands

import "github.com/Qfresquin/cmk2nob/internal/evaluator"

// Builtins returns the full built-in command table, excluding include()
// and add_subdirectory() which require a caller-supplied evaluator.
// FileLoader and are wired separately through RegisterFileHandlers.
func Builtins() map[string]evaluator.HandlerFunc {
	h := map[string]evaluator.HandlerFunc{}
	registerProjectHandlers(h)
	registerTargetHandlers(h)
	registerDirectiveHandlers(h)
	registerControlHandlers(h)
	registerStringListMathHandlers(h)
	registerFileIOHandlers(h)
	registerProbeHandlers(h)
	registerTestingPackagingHandlers(h)
	registerCTestHandlers(h)
	registerFileAPIHandlers(h)
	return h
}

// Install populates ctx.Handlers with every built-in command, including
// include() and add_subdirectory() wired to load for resolving nested
// listfiles.
func Install(ctx *evaluator.Context, load evaluator.FileLoader) {
	for name, fn := range Builtins() {
		ctx.Handlers[name] = fn
	}
	RegisterFileHandlers(ctx.Handlers, load)
}

package engine

// Module is spec.md §6's `Module` result of `engine.parse` for
// module-goal source: a Script whose ast.Program.IsModule is set.
//
// Scope boundary: jsvm's lexer/parser do not implement the
// import/export declaration grammar (spec.md's External Interfaces
// names HostResolveImportedModule/HostImportModuleDynamically as host
// hooks a module system would call, but the module *loader* itself —
// specifier resolution, linking, the module record's evaluation
// state machine — is not part of this engine's distilled scope). A
// Module therefore parses and runs exactly like a Script; the distinct
// type exists so an embedder can tell the two apart and so a future
// import/export grammar has somewhere to attach without reshaping this
// façade's public surface.
type Module struct {
	Script
}

// IsModule reports true for every value ParseModule returns.
func (m *Module) IsModule() bool { return true }

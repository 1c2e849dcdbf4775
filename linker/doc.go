// Package linker builds the import namespace available to a guest module
// before instantiation.
//
// Host functions are registered as typed descriptors: a mapping from
// (namespace, function name) to a FuncDef carrying the handler and its core
// wasm signature. At link time the registry is validated against the
// module's declared imports, so a missing or mismatched import fails the
// whole invocation up front instead of being discovered mid-call.
//
// Registration mutates the shared namespace and must complete, followed by
// Instantiate, before any module is instantiated against the runtime.
package linker

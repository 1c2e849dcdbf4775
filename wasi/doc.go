// Package wasi configures the standard system-interface shim consumed by
// guest modules: inherited host stdio plus caller-supplied environment
// variables. The shim itself is wazero's wasi_snapshot_preview1
// implementation; this package only builds the per-store configuration and
// registers the shim into the runtime.
package wasi

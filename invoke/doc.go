// Package invoke drives a single guest function call from start to
// finish: coercing command-line tokens into wasm stack values, resolving
// the export, running it on a metered store, and rendering the typed
// results.
package invoke

// Package httpcap provides the outbound-network capability guest modules
// import under the wasi_experimental_http namespace.
//
// The capability is acquired once per run with New, which resolves the
// shared HTTP client state and fixes two policies for the lifetime of the
// run: an allow-list of permitted outbound destinations and an optional
// bound on concurrently in-flight requests. A nil allow-list and an empty
// allow-list both deny every outbound attempt. Requests beyond the
// concurrency bound block until a slot frees; they are never failed for
// queueing and never allowed to exceed the bound.
//
// Register places the capability's entry points into a linker namespace;
// this must happen before the guest module is instantiated.
package httpcap

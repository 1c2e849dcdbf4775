// Package wasmhost runs WebAssembly modules with WASI and a guarded
// outbound HTTP capability.
//
// The module is a small host: it loads a core wasm module, links the WASI
// preview1 system interface and the wasi_experimental_http capability,
// invokes one export with command-line arguments, and prints the typed
// results. Guest execution is fuel metered, so long-running code yields
// cooperatively instead of monopolizing its goroutine.
//
// # Architecture Overview
//
// The host is organized into packages with distinct responsibilities:
//
//	wasmhost/            Root package with the host version
//	├── cmd/wasm-host/   Command-line entry point
//	├── invoke/          Invocation driver and argument/result coercion
//	├── engine/          wazero runtime configuration and fuel metering
//	├── linker/          Typed host import registry and import validation
//	├── httpcap/         Outbound HTTP capability with allow-list and limits
//	├── wasi/            WASI preview1 module configuration
//	└── errors/          Structured error types for diagnostics
//
// # Quick Start
//
// Run a module's export from Go:
//
//	d := invoke.NewDriver(invoke.Options{
//	    Wasm:     wasmBytes,
//	    Name:     "demo.wasm",
//	    Function: "add",
//	    Args:     []string{"2", "40"},
//	})
//
//	res, err := d.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Values[0]) // "42"
//
// # Outbound HTTP
//
// The guest reaches the network only through the wasi_experimental_http
// import namespace, and only to origins on the allow-list. An empty
// allow-list denies every request. In-flight requests beyond the
// configured concurrency bound block until a slot frees.
//
// # Thread Safety
//
// A Driver is single use and not safe for concurrent use. The capability
// and engine types it builds internally are safe for the concurrency the
// guest can generate.
package wasmhost

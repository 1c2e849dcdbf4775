package wasmhost

// Version is the host release version reported by the CLI.
const Version = "0.1.0"

// Package errors provides structured error types for the wasm-host harness.
//
// Errors are categorized by Phase (where in the invocation pipeline the error
// occurred) and Kind (error category). Every error in the harness is terminal:
// there is no local recovery or retry anywhere in the pipeline, so all errors
// propagate to the top level and cause a non-zero process exit.
//
// Use the convenience constructors for common patterns:
//
//	err := errors.ArgumentCount(2, 1)
//	err := errors.ExportNotFound("get")
//	err := errors.CapabilityInit(cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

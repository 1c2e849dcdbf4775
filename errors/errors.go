package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the invocation pipeline the error occurred
type Phase string

const (
	PhaseCLI        Phase = "cli"        // command-line parsing
	PhaseLoad       Phase = "load"       // module bytes / compilation
	PhaseSetup      Phase = "setup"      // engine and store construction
	PhaseCapability Phase = "capability" // capability acquisition or use
	PhaseLink       Phase = "link"       // import namespace resolution
	PhaseResolve    Phase = "resolve"    // export lookup
	PhaseInvoke     Phase = "invoke"     // argument/result marshaling
	PhaseRuntime    Phase = "runtime"    // guest execution
)

// Kind categorizes the error
type Kind string

const (
	KindArgumentCount     Kind = "argument_count_mismatch"
	KindArgumentParse     Kind = "argument_parse"
	KindUnsupportedParam  Kind = "unsupported_parameter"
	KindExportNotFound    Kind = "export_not_found"
	KindCapabilityInit    Kind = "capability_init"
	KindCapabilityRuntime Kind = "capability_runtime"
	KindMissingImport     Kind = "missing_import"
	KindGuestTrap         Kind = "guest_trap"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidConfig     Kind = "invalid_config"
	KindInvalidData       Kind = "invalid_data"
	KindInstantiation     Kind = "instantiation"
	KindNotFound          Kind = "not_found"
	KindRegistration      Kind = "registration"
	KindSignatureMismatch Kind = "signature_mismatch"
)

// Error is the structured error type used throughout the harness
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the harness error taxonomy

// ArgumentCount reports an argument list whose length does not match the
// invoked function's declared parameter count.
func ArgumentCount(want, got int) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindArgumentCount,
		Detail: fmt.Sprintf("%d argument(s) provided, %d required", got, want),
		Value:  got,
	}
}

// ArgumentParse reports a token that does not parse for its positional
// parameter's declared kind.
func ArgumentParse(pos int, kind, token string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindArgumentParse,
		Detail: fmt.Sprintf("argument %d: %q is not a valid %s", pos, token, kind),
		Value:  token,
		Cause:  cause,
	}
}

// UnsupportedParameter reports a parameter kind that cannot be supplied from
// the command line.
func UnsupportedParameter(pos int, kind string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindUnsupportedParam,
		Detail: fmt.Sprintf("argument %d: unsupported parameter type %s", pos, kind),
	}
}

// ExportNotFound reports a named export absent from the instantiated module.
// This indicates a caller/module mismatch discoverable only at runtime.
func ExportNotFound(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindExportNotFound,
		Detail: fmt.Sprintf("cannot find function %q", name),
		Value:  name,
	}
}

// CapabilityInit reports a failed capability acquisition. It aborts
// instantiation before any guest code runs.
func CapabilityInit(cause error) *Error {
	return &Error{
		Phase:  PhaseCapability,
		Kind:   KindCapabilityInit,
		Detail: "acquire capability",
		Cause:  cause,
	}
}

// CapabilityRuntime reports a capability error surfaced during guest
// execution, e.g. a disallowed outbound destination.
func CapabilityRuntime(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseCapability,
		Kind:   KindCapabilityRuntime,
		Detail: detail,
		Cause:  cause,
	}
}

// GuestTrap reports a guest-level runtime fault during a call.
func GuestTrap(fn string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindGuestTrap,
		Detail: fmt.Sprintf("call %s", fn),
		Cause:  cause,
	}
}

// Config reports an invalid engine or store configuration. Fatal at setup,
// before any guest code executes.
func Config(detail string) *Error {
	return &Error{
		Phase:  PhaseSetup,
		Kind:   KindInvalidConfig,
		Detail: detail,
	}
}

// Load reports a failure to read or compile the module.
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation reports a failed module instantiation.
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Registration reports a failed host module registration during linking.
func Registration(namespace string, cause error) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register host module %q", namespace),
		Cause:  cause,
	}
}

// SignatureMismatch reports a guest import whose declared signature differs
// from the registered host function descriptor.
func SignatureMismatch(module, function, detail string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindSignatureMismatch,
		Detail: fmt.Sprintf("import %s.%s: %s", module, function, detail),
	}
}

// InvalidInput creates an invalid input error for the given phase.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// MissingImport represents a single unresolved guest import
type MissingImport struct {
	Module   string // e.g., "wasi_experimental_http"
	Function string // e.g., "req"
}

// MissingImportsError is returned when linking fails because the guest
// declares imports no registered host function satisfies.
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "module.function" pairs
func NewMissingImportsError(imports []MissingImport) *MissingImportsError {
	return &MissingImportsError{Imports: imports}
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[link] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d host function(s):\n", len(e.Imports))

	// Group by module for cleaner output
	byModule := make(map[string][]string)
	var order []string
	for _, imp := range e.Imports {
		if _, exists := byModule[imp.Module]; !exists {
			order = append(order, imp.Module)
		}
		byModule[imp.Module] = append(byModule[imp.Module], imp.Function)
	}

	for _, mod := range order {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, fn := range byModule[mod] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}

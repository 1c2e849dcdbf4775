package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseInvoke,
				Kind:   KindArgumentParse,
				Detail: "argument 1 is not a valid i32",
			},
			contains: []string{"[invoke]", "argument_parse", "argument 1 is not a valid i32"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLink,
				Kind:  KindMissingImport,
			},
			contains: []string{"[link]", "missing_import"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCapability,
				Kind:   KindCapabilityInit,
				Detail: "acquire capability",
				Cause:  errors.New("no such host"),
			},
			contains: []string{"[capability]", "capability_init", "acquire capability", "caused by", "no such host"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := GuestTrap("run", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not match the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestError_Is(t *testing.T) {
	a := ArgumentCount(2, 1)
	b := ArgumentCount(3, 0)
	c := ExportNotFound("get")

	if !errors.Is(a, b) {
		t.Error("errors with same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different kind should not match")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		contains []string
	}{
		{
			name:     "argument count",
			err:      ArgumentCount(2, 1),
			contains: []string{"1 argument(s) provided", "2 required"},
		},
		{
			name:     "argument parse",
			err:      ArgumentParse(0, "i64", "abc", errors.New("invalid syntax")),
			contains: []string{"argument 0", `"abc"`, "i64"},
		},
		{
			name:     "unsupported parameter",
			err:      UnsupportedParameter(1, "v128"),
			contains: []string{"argument 1", "unsupported parameter type v128"},
		},
		{
			name:     "export not found",
			err:      ExportNotFound("get"),
			contains: []string{`cannot find function "get"`},
		},
		{
			name:     "config",
			err:      Config("fuel grant must be positive"),
			contains: []string{"[setup]", "invalid_config", "fuel grant must be positive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestMissingImportsError(t *testing.T) {
	err := NewMissingImportsError([]MissingImport{
		{Module: "wasi_experimental_http", Function: "req"},
		{Module: "wasi_experimental_http", Function: "close"},
		{Module: "host", Function: "log"},
	})

	msg := err.Error()
	for _, s := range []string{"missing 3 host function(s)", "wasi_experimental_http", "req", "close", "host", "log"} {
		if !strings.Contains(msg, s) {
			t.Errorf("error message %q does not contain %q", msg, s)
		}
	}

	if !errors.Is(err, &MissingImportsError{}) {
		t.Error("errors.Is should match any MissingImportsError")
	}
}

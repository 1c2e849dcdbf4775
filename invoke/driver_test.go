package invoke

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-host/engine"
	hosterrors "github.com/wippyai/wasm-host/errors"
	"github.com/wippyai/wasm-host/internal/wasmtest"
)

func TestDriverAdd(t *testing.T) {
	d := NewDriver(Options{
		Wasm:     wasmtest.AddModule(),
		Name:     "add.wasm",
		Function: "add",
		Args:     []string{"2", "40"},
	})

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Values) != 1 || res.Values[0] != "42" {
		t.Fatalf("values = %v, want [42]", res.Values)
	}
	if d.State() != StateCompleted {
		t.Fatalf("state = %v, want %v", d.State(), StateCompleted)
	}
}

func TestDriverFloatIdentity(t *testing.T) {
	tests := []struct {
		name string
		wasm []byte
		arg  string
		want string
	}{
		{"f32", wasmtest.F32IdentityModule(), "1.5", "1.5"},
		{"f64", wasmtest.F64IdentityModule(), "2.25", "2.25"},
		{"f64 negative", wasmtest.F64IdentityModule(), "-0.5", "-0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver(Options{
				Wasm:     tt.wasm,
				Name:     "id.wasm",
				Function: "id",
				Args:     []string{tt.arg},
			})
			res, err := d.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(res.Values) != 1 || res.Values[0] != tt.want {
				t.Fatalf("values = %v, want [%s]", res.Values, tt.want)
			}
		})
	}
}

func TestDriverDefaultEntrypoint(t *testing.T) {
	d := NewDriver(Options{
		Wasm: wasmtest.StartModule(),
		Name: "start.wasm",
	})

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Values) != 0 {
		t.Fatalf("values = %v, want none", res.Values)
	}
}

func TestDriverArgumentCount(t *testing.T) {
	d := NewDriver(Options{
		Wasm:     wasmtest.AddModule(),
		Name:     "add.wasm",
		Function: "add",
		Args:     []string{"1"},
	})

	_, err := d.Run(context.Background())
	if !stderrors.Is(err, hosterrors.ArgumentCount(0, 0)) {
		t.Fatalf("error = %v, want argument count mismatch", err)
	}
	if d.State() != StateFailed {
		t.Fatalf("state = %v, want %v", d.State(), StateFailed)
	}
}

func TestDriverArgumentParse(t *testing.T) {
	d := NewDriver(Options{
		Wasm:     wasmtest.AddModule(),
		Name:     "add.wasm",
		Function: "add",
		Args:     []string{"2", "forty"},
	})

	_, err := d.Run(context.Background())
	if !stderrors.Is(err, hosterrors.ArgumentParse(0, "", "", nil)) {
		t.Fatalf("error = %v, want argument parse failure", err)
	}
}

func TestDriverExportNotFound(t *testing.T) {
	d := NewDriver(Options{
		Wasm:     wasmtest.AddModule(),
		Name:     "add.wasm",
		Function: "subtract",
	})

	_, err := d.Run(context.Background())
	if !stderrors.Is(err, hosterrors.ExportNotFound("")) {
		t.Fatalf("error = %v, want export not found", err)
	}
	if !strings.Contains(err.Error(), `cannot find function "subtract"`) {
		t.Fatalf("error %q does not name the missing export", err)
	}
	if d.State() != StateFailed {
		t.Fatalf("state = %v, want %v", d.State(), StateFailed)
	}
}

func TestDriverGuestTrap(t *testing.T) {
	d := NewDriver(Options{
		Wasm:     wasmtest.TrapModule(),
		Name:     "trap.wasm",
		Function: "boom",
	})

	_, err := d.Run(context.Background())
	if !stderrors.Is(err, hosterrors.GuestTrap("", nil)) {
		t.Fatalf("error = %v, want guest trap", err)
	}
	if d.State() != StateFailed {
		t.Fatalf("state = %v, want %v", d.State(), StateFailed)
	}
}

func TestDriverMissingImport(t *testing.T) {
	d := NewDriver(Options{
		Wasm: wasmtest.NeedsImportModule(),
		Name: "needs-import.wasm",
	})

	_, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var missing *hosterrors.MissingImportsError
	if !stderrors.As(err, &missing) {
		t.Fatalf("error = %v, want missing imports", err)
	}
	if !strings.Contains(err.Error(), "host") || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("error %q does not name the unresolved import", err)
	}
}

func TestDriverMeteredExecution(t *testing.T) {
	cfg := engine.Config{
		AsyncSupport:  true,
		ConsumeFuel:   true,
		FuelGrant:     10,
		YieldInterval: 10,
	}
	d := NewDriver(Options{
		Wasm:     wasmtest.CountdownModule(),
		Name:     "countdown.wasm",
		Function: "count",
		Args:     []string{"500"},
		Engine:   &cfg,
	})

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Yields < 10 {
		t.Fatalf("yields = %d, want at least 10", res.Yields)
	}
}

func TestDriverSingleUse(t *testing.T) {
	d := NewDriver(Options{
		Wasm:     wasmtest.AddModule(),
		Name:     "add.wasm",
		Function: "add",
		Args:     []string{"1", "2"},
	})

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := d.Run(context.Background()); err == nil {
		t.Fatal("second Run should fail")
	}
}

func TestListExports(t *testing.T) {
	exports, err := ListExports(context.Background(), wasmtest.AddModule())
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(exports) != 1 || exports[0] != "add(i32, i32) -> i32" {
		t.Fatalf("exports = %v", exports)
	}
}

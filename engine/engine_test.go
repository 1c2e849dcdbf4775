package engine

import (
	"context"
	"errors"
	"testing"

	hosterrors "github.com/wippyai/wasm-host/errors"
	"github.com/wippyai/wasm-host/internal/wasmtest"
)

func TestNew_ConfigValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "no fuel", cfg: Config{AsyncSupport: true}},
		{name: "fuel without grant", cfg: Config{ConsumeFuel: true, YieldInterval: 100}, wantErr: true},
		{name: "fuel without interval", cfg: Config{ConsumeFuel: true, FuelGrant: 100}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := New(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected configuration error, got nil")
				}
				if !errors.Is(err, hosterrors.Config("")) {
					t.Errorf("error %v is not a setup/invalid_config error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			eng.Close(ctx)
		})
	}
}

func TestEngine_Compile(t *testing.T) {
	ctx := context.Background()

	eng, err := New(ctx, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close(ctx)

	if _, err := eng.Compile(ctx, wasmtest.AddModule()); err != nil {
		t.Errorf("compile valid module: %v", err)
	}

	if _, err := eng.Compile(ctx, []byte("not wasm")); err == nil {
		t.Error("expected error compiling malformed bytes")
	}
}

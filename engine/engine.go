package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-host/errors"
)

// Config holds the immutable settings fixed before any module loads.
// Created once per process and never mutated after the engine is built.
type Config struct {
	// AsyncSupport runs guest calls on their own goroutine so the caller's
	// worker is released during capability waits.
	AsyncSupport bool

	// ConsumeFuel enables cooperative preemption: guest execution burns
	// fuel and is forced to yield between bursts.
	ConsumeFuel bool

	// FuelGrant is the initial fuel added to each store. Must be positive
	// when ConsumeFuel is set.
	FuelGrant uint64

	// YieldInterval is how much fuel may be consumed between forced
	// yields. Must be positive when ConsumeFuel is set.
	YieldInterval uint64

	// MemoryLimitPages caps guest linear memory in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// DefaultConfig matches the host's standard deployment: asynchronous
// execution with fuel metering at a 10000-unit grant and interval.
func DefaultConfig() Config {
	return Config{
		AsyncSupport:  true,
		ConsumeFuel:   true,
		FuelGrant:     10000,
		YieldInterval: 10000,
	}
}

// Engine owns one wazero runtime built from an explicit Config.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
}

// New creates an engine from cfg. Configuration errors are fatal here,
// before any module is compiled.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.ConsumeFuel {
		if cfg.FuelGrant == 0 {
			return nil, errors.Config("fuel grant must be positive when fuel metering is enabled")
		}
		if cfg.YieldInterval == 0 {
			return nil, errors.Config("yield interval must be positive when fuel metering is enabled")
		}
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.AsyncSupport {
		// Lets a cancelled context interrupt a running guest call.
		runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:     cfg,
	}, nil
}

// Runtime returns the underlying wazero runtime.
func (e *Engine) Runtime() wazero.Runtime {
	return e.runtime
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compile validates and compiles a module from bytes. The module is
// immutable and may be instantiated multiple times.
//
// When fuel metering is enabled, compile with the context returned by the
// target store's WithContext so the meter is bound to the compiled code.
func (e *Engine) Compile(ctx context.Context, wasm []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	Logger().Debug("module compiled",
		zap.Int("size", len(wasm)),
		zap.Int("imports", len(compiled.ImportedFunctions())))
	return compiled, nil
}

// Close releases the runtime. All instances must be closed first.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

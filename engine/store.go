package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"
)

// Store is the mutable state paired with one module instantiation: the
// system-interface module configuration and the fuel meter. A store is
// owned exclusively by one invocation; an instance cannot outlive it.
type Store struct {
	modConfig wazero.ModuleConfig
	meter     *Meter
}

// NewStore creates a store for one instantiation. When the engine meters
// fuel, the store receives its own meter seeded with the configured grant;
// a meter construction failure is fatal before any guest code executes.
func (e *Engine) NewStore(modConfig wazero.ModuleConfig) (*Store, error) {
	s := &Store{modConfig: modConfig}

	if e.cfg.ConsumeFuel {
		meter, err := NewMeter(e.cfg.FuelGrant, e.cfg.YieldInterval)
		if err != nil {
			return nil, err
		}
		s.meter = meter
	}

	return s, nil
}

// ModuleConfig returns the system-interface configuration for this store.
func (s *Store) ModuleConfig() wazero.ModuleConfig {
	return s.modConfig
}

// Meter returns the store's fuel meter, or nil when metering is disabled.
func (s *Store) Meter() *Meter {
	return s.meter
}

// WithContext binds the store's fuel meter to ctx. The returned context
// must be used both to compile the guest module and to drive its calls;
// without it the compiled code is not metered.
func (s *Store) WithContext(ctx context.Context) context.Context {
	if s.meter == nil {
		return ctx
	}
	return experimental.WithFunctionListenerFactory(ctx, &meterFactory{meter: s.meter})
}

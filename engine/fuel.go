package engine

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-host/errors"
)

// Meter enforces the fuel policy for one store.
//
// The remaining counter is strictly >= 0 at every observation point. Guest
// execution decrements it one unit per function entry; when it reaches zero
// the executing goroutine yields to the scheduler and the meter refills to
// the yield interval. Guest code can never replenish fuel.
type Meter struct {
	remaining atomic.Uint64
	yields    atomic.Uint64
	interval  uint64
}

// NewMeter creates a meter with an initial grant and a yield interval.
// A zero grant or interval is a configuration error, fatal before any
// guest code executes.
func NewMeter(grant, interval uint64) (*Meter, error) {
	if grant == 0 {
		return nil, errors.Config("fuel grant must be positive")
	}
	if interval == 0 {
		return nil, errors.Config("yield interval must be positive")
	}
	m := &Meter{interval: interval}
	m.remaining.Store(grant)
	return m, nil
}

// Remaining returns the current fuel balance.
func (m *Meter) Remaining() uint64 {
	return m.remaining.Load()
}

// Yields returns how many forced yields have occurred.
func (m *Meter) Yields() uint64 {
	return m.yields.Load()
}

// Interval returns the configured yield interval.
func (m *Meter) Interval() uint64 {
	return m.interval
}

// consume burns one unit. On exhaustion the calling goroutine is suspended
// (handed back to the scheduler), the meter refills, and the computation
// resumes. This repeats indefinitely: only the burst size is bounded.
func (m *Meter) consume() {
	for {
		cur := m.remaining.Load()
		if cur == 0 {
			// Another entry on this store drained the tank first.
			m.yield()
			continue
		}
		if m.remaining.CompareAndSwap(cur, cur-1) {
			if cur-1 == 0 {
				m.yield()
			}
			return
		}
	}
}

func (m *Meter) yield() {
	m.yields.Add(1)
	runtime.Gosched()
	m.remaining.Store(m.interval)
}

// meterFactory attaches a store's meter to every function compiled under
// the store's context. Host modules are instantiated outside that context,
// so only guest functions are metered.
type meterFactory struct {
	meter *Meter
}

func (f *meterFactory) NewFunctionListener(api.FunctionDefinition) experimental.FunctionListener {
	return &meterListener{meter: f.meter}
}

type meterListener struct {
	meter *Meter
}

func (l *meterListener) Before(_ context.Context, _ api.Module, _ api.FunctionDefinition, _ []uint64, _ experimental.StackIterator) {
	l.meter.consume()
}

func (l *meterListener) After(context.Context, api.Module, api.FunctionDefinition, []uint64) {}

func (l *meterListener) Abort(_ context.Context, _ api.Module, def api.FunctionDefinition, err error) {
	Logger().Debug("metered call aborted",
		zap.String("function", def.DebugName()),
		zap.Error(err))
}

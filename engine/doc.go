// Package engine wraps the wazero runtime behind an explicit, immutable
// configuration and owns the fuel-metered execution policy.
//
// An Engine is created once per run from a Config value; the configuration is
// never ambient process state, so concurrent instantiations stay independent.
// Each invocation pairs one Store with one module instance. The Store carries
// the system-interface module configuration and, when fuel metering is
// enabled, a Meter that bounds how long a synchronous burst of guest
// execution may run before the worker yields back to the scheduler.
//
// Fuel is an abstract, wall-clock-independent unit of guest computation.
// When a store's meter runs dry the executing goroutine is handed back to
// the Go scheduler and the meter refills to the configured yield interval,
// so the total fuel ceiling across one invocation is unbounded; only the
// burst size between yields is bounded.
package engine

package invoke

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-host/engine"
	"github.com/wippyai/wasm-host/errors"
	"github.com/wippyai/wasm-host/httpcap"
	"github.com/wippyai/wasm-host/linker"
	"github.com/wippyai/wasm-host/wasi"
)

// State tracks a driver through its one-shot lifecycle. Transitions only
// move forward; a failed run is never retried.
type State int

const (
	StateUninstantiated State = iota
	StateLinked
	StateInstantiated
	StateResolved
	StateExecuting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninstantiated:
		return "uninstantiated"
	case StateLinked:
		return "linked"
	case StateInstantiated:
		return "instantiated"
	case StateResolved:
		return "resolved"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a single guest invocation.
type Options struct {
	// Wasm holds the module bytes to run.
	Wasm []byte

	// Name identifies the module in diagnostics and as argv[0].
	Name string

	// Function is the export to call. Empty means "_start".
	Function string

	// Args are the textual arguments coerced to the export's parameters.
	Args []string

	// Env is the guest environment.
	Env map[string]string

	// AllowedHosts is the outbound allow-list. Nil or empty denies all
	// outbound requests.
	AllowedHosts []string

	// Concurrency bounds in-flight outbound requests. 0 means unbounded.
	Concurrency int

	// Engine overrides the default engine configuration when non-nil.
	Engine *engine.Config
}

func (o Options) function() string {
	if o.Function == "" {
		return "_start"
	}
	return o.Function
}

// Result is the outcome of a completed invocation.
type Result struct {
	// Values holds one rendered string per declared result.
	Values []string

	// Yields counts the forced fuel yields taken during execution.
	Yields uint64
}

// Driver runs one module invocation end to end. Each driver is single
// use: Run may be called once.
type Driver struct {
	opts  Options
	state State
}

func NewDriver(opts Options) *Driver {
	return &Driver{opts: opts}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

func (d *Driver) transition(s State) {
	d.state = s
	engine.Logger().Debug("driver state",
		zap.String("module", d.opts.Name),
		zap.Stringer("state", s))
}

func (d *Driver) fail(err error) error {
	d.state = StateFailed
	return err
}

// Run executes the configured invocation: build the engine, register
// capabilities, link, instantiate, resolve the export, and call it.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.state != StateUninstantiated {
		return nil, d.fail(errors.InvalidInput(errors.PhaseSetup,
			"driver already ran; create a new driver per invocation"))
	}

	cfg := engine.DefaultConfig()
	if d.opts.Engine != nil {
		cfg = *d.opts.Engine
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return nil, d.fail(err)
	}
	defer eng.Close(ctx)

	hc, err := httpcap.New(ctx, httpcap.Config{
		AllowedHosts:   d.opts.AllowedHosts,
		MaxConcurrency: d.opts.Concurrency,
	})
	if err != nil {
		return nil, d.fail(err)
	}

	lk := linker.New(eng.Runtime())
	if err := hc.Register(lk); err != nil {
		return nil, d.fail(err)
	}
	if err := wasi.Instantiate(ctx, eng.Runtime()); err != nil {
		return nil, d.fail(err)
	}
	// Host modules instantiate on the plain context so only guest code is
	// metered.
	if err := lk.Instantiate(ctx); err != nil {
		return nil, d.fail(err)
	}
	d.transition(StateLinked)

	wasiCfg := wasi.Config{
		Env:  d.opts.Env,
		Args: d.opts.Args,
		Name: d.opts.Name,
	}
	store, err := eng.NewStore(wasiCfg.Build())
	if err != nil {
		return nil, d.fail(err)
	}
	mctx := store.WithContext(ctx)

	compiled, err := eng.Compile(mctx, d.opts.Wasm)
	if err != nil {
		return nil, d.fail(err)
	}
	if err := lk.ValidateImports(compiled); err != nil {
		return nil, d.fail(err)
	}

	mod, err := eng.Runtime().InstantiateModule(mctx, compiled, store.ModuleConfig())
	if err != nil {
		return nil, d.fail(errors.Instantiation(err))
	}
	defer mod.Close(ctx)
	d.transition(StateInstantiated)

	name := d.opts.function()
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return nil, d.fail(errors.ExportNotFound(name))
	}
	d.transition(StateResolved)

	def := fn.Definition()
	args, err := ParseArgs(def.ParamTypes(), d.opts.Args)
	if err != nil {
		return nil, d.fail(err)
	}

	d.transition(StateExecuting)
	stack, err := call(mctx, ctx, cfg.AsyncSupport, fn, args)
	if err != nil {
		var exit *sys.ExitError
		if stderrors.As(err, &exit) && exit.ExitCode() == 0 {
			err = nil
		} else {
			return nil, d.fail(errors.GuestTrap(name, err))
		}
	}

	res := &Result{Values: RenderResults(def.ResultTypes(), stack)}
	if m := store.Meter(); m != nil {
		res.Yields = m.Yields()
	}
	d.transition(StateCompleted)
	return res, nil
}

// call dispatches the guest function, on its own goroutine when async
// support is on. The runtime closes on context cancellation, so the
// pending call is always collected.
func call(mctx, ctx context.Context, async bool, fn api.Function, args []uint64) ([]uint64, error) {
	if !async {
		return fn.Call(mctx, args...)
	}

	type outcome struct {
		stack []uint64
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		stack, err := fn.Call(mctx, args...)
		ch <- outcome{stack: stack, err: err}
	}()

	select {
	case o := <-ch:
		return o.stack, o.err
	case <-ctx.Done():
		o := <-ch
		return o.stack, o.err
	}
}

// ListExports compiles the module and returns its function exports as
// "name(params) -> results" signatures, sorted by name.
func ListExports(ctx context.Context, wasm []byte) ([]string, error) {
	eng, err := engine.New(ctx, engine.Config{})
	if err != nil {
		return nil, err
	}
	defer eng.Close(ctx)

	compiled, err := eng.Compile(ctx, wasm)
	if err != nil {
		return nil, err
	}

	exports := compiled.ExportedFunctions()
	out := make([]string, 0, len(exports))
	for name, def := range exports {
		out = append(out, signature(name, def))
	}
	sort.Strings(out)
	return out, nil
}

func signature(name string, def api.FunctionDefinition) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range def.ParamTypes() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(typeName(p))
	}
	b.WriteByte(')')
	if rs := def.ResultTypes(); len(rs) > 0 {
		b.WriteString(" -> ")
		for i, r := range rs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(typeName(r))
		}
	}
	return b.String()
}

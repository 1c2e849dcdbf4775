package linker

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-host/engine"
	"github.com/wippyai/wasm-host/errors"
)

// FuncDef is the typed descriptor for one host function: the handler plus
// its declared core wasm signature.
type FuncDef struct {
	Handler api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Linker manages host function definitions for one runtime.
// Thread-safe.
type Linker struct {
	runtime      wazero.Runtime
	namespaces   map[string]*Namespace
	order        []string
	mu           sync.Mutex
	instantiated bool
}

// New creates a Linker bound to a wazero runtime.
func New(rt wazero.Runtime) *Linker {
	return &Linker{
		runtime:    rt,
		namespaces: make(map[string]*Namespace),
	}
}

// Namespace returns or creates the namespace registered under name, e.g.
// "wasi_experimental_http".
func (l *Linker) Namespace(name string) *Namespace {
	l.mu.Lock()
	defer l.mu.Unlock()

	ns, ok := l.namespaces[name]
	if !ok {
		ns = &Namespace{name: name, funcs: make(map[string]*FuncDef)}
		l.namespaces[name] = ns
		l.order = append(l.order, name)
	}
	return ns
}

// Resolve looks up a registered function descriptor, or nil.
func (l *Linker) Resolve(namespace, name string) *FuncDef {
	l.mu.Lock()
	ns, ok := l.namespaces[namespace]
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return ns.get(name)
}

// Instantiate builds every registered namespace as a host module in the
// runtime. Must be called once, after all registrations and before any
// guest module is instantiated.
func (l *Linker) Instantiate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.instantiated {
		return errors.InvalidInput(errors.PhaseLink, "linker already instantiated")
	}

	for _, name := range l.order {
		ns := l.namespaces[name]
		builder := l.runtime.NewHostModuleBuilder(name)
		fnNames := ns.Funcs()
		for _, fnName := range fnNames {
			def := ns.get(fnName)
			builder.NewFunctionBuilder().
				WithGoModuleFunction(def.Handler, def.Params, def.Results).
				Export(def.Name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.Registration(name, err)
		}
		engine.Logger().Debug("host module registered",
			zap.String("namespace", name),
			zap.Int("functions", len(fnNames)))
	}

	l.instantiated = true
	return nil
}

// ValidateImports checks every import the compiled module declares against
// the registered descriptors and the runtime's already-instantiated host
// modules. Missing imports are collected into one MissingImportsError; a
// signature mismatch fails immediately.
func (l *Linker) ValidateImports(compiled wazero.CompiledModule) error {
	var missing []errors.MissingImport

	for _, def := range compiled.ImportedFunctions() {
		module, name, ok := def.Import()
		if !ok {
			continue
		}

		if fd := l.Resolve(module, name); fd != nil {
			if !typesEqual(fd.Params, def.ParamTypes()) {
				return errors.SignatureMismatch(module, name, "parameter types differ")
			}
			if !typesEqual(fd.Results, def.ResultTypes()) {
				return errors.SignatureMismatch(module, name, "result types differ")
			}
			continue
		}

		// Modules instantiated directly in the runtime (the WASI shim)
		// satisfy imports outside the typed registry.
		if host := l.runtime.Module(module); host != nil {
			if host.ExportedFunction(name) != nil {
				continue
			}
		}

		missing = append(missing, errors.MissingImport{Module: module, Function: name})
	}

	if len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

func typesEqual(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Namespace is one import module in the registry.
type Namespace struct {
	name  string
	funcs map[string]*FuncDef
	order []string
	mu    sync.Mutex
}

// Name returns the namespace's import module name.
func (ns *Namespace) Name() string {
	return ns.name
}

// DefineFunc registers a host function descriptor. Redefinition replaces
// the previous descriptor.
func (ns *Namespace) DefineFunc(name string, fn api.GoModuleFunc, params, results []api.ValueType) *Namespace {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, exists := ns.funcs[name]; !exists {
		ns.order = append(ns.order, name)
	}
	ns.funcs[name] = &FuncDef{
		Name:    name,
		Handler: fn,
		Params:  params,
		Results: results,
	}
	return ns
}

// Funcs returns the registered function names in definition order.
func (ns *Namespace) Funcs() []string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return append([]string(nil), ns.order...)
}

func (ns *Namespace) get(name string) *FuncDef {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.funcs[name]
}

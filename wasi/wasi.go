package wasi

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/wasm-host/errors"
)

// Config describes the system-interface environment for one store.
type Config struct {
	// Env holds the environment variables exposed to the guest.
	Env map[string]string

	// Args become the guest's argv after the module name.
	Args []string

	// Name is argv[0]; defaults to "module" when empty.
	Name string
}

// ParseEnv converts repeated NAME=VAL entries into a map. A malformed
// entry (no '=') fails before any engine setup.
func ParseEnv(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			return nil, errors.InvalidInput(errors.PhaseCLI,
				fmt.Sprintf("environment variable %q must be of the form NAME=VAL", entry))
		}
		env[name] = value
	}
	return env, nil
}

// Build produces the module configuration for one store: host stdio is
// inherited directly so guest I/O reaches the terminal unbuffered.
//
// Start functions are cleared; the invocation driver resolves and calls
// the requested export itself.
func (c Config) Build() wazero.ModuleConfig {
	name := c.Name
	if name == "" {
		name = "module"
	}

	cfg := wazero.NewModuleConfig().
		WithStdin(os.Stdin).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader).
		WithArgs(append([]string{name}, c.Args...)...).
		WithStartFunctions()

	// Deterministic order keeps repeated runs identical.
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cfg = cfg.WithEnv(k, c.Env[k])
	}

	return cfg
}

// Instantiate registers the preview1 shim into the runtime. Must complete
// before any guest module that imports it is instantiated.
func Instantiate(ctx context.Context, rt wazero.Runtime) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return errors.Registration(wasi_snapshot_preview1.ModuleName, err)
	}
	return nil
}

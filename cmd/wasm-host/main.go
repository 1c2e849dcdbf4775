package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	wasmhost "github.com/wippyai/wasm-host"
	"github.com/wippyai/wasm-host/engine"
	"github.com/wippyai/wasm-host/errors"
	"github.com/wippyai/wasm-host/invoke"
	"github.com/wippyai/wasm-host/wasi"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "invoke",
		Aliases: []string{"i"},
		Usage:   "`name` of the export to call",
		Value:   "_start",
	},
	&cli.StringSliceFlag{
		Name:    "env",
		Aliases: []string{"e"},
		Usage:   "guest environment entry as `NAME=VAL` (repeatable)",
	},
	&cli.StringSliceFlag{
		Name:    "allowed-host",
		Aliases: []string{"a"},
		Usage:   "origin the guest may reach over HTTP (repeatable; none denies all)",
	},
	&cli.IntFlag{
		Name:    "concurrency",
		Aliases: []string{"c"},
		Usage:   "max in-flight outbound requests (0 is unbounded)",
	},
	&cli.BoolFlag{
		Name:  "list",
		Usage: "list the module's function exports and exit",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log engine internals to stderr",
	},
}

func main() {
	app := &cli.App{
		Name:      "wasm-host",
		Usage:     "run a WebAssembly module with WASI and outbound HTTP",
		UsageText: "wasm-host [options] <module.wasm> [arguments...]",
		Version:   wasmhost.Version,
		Flags:     flags,
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.InvalidInput(errors.PhaseCLI, "a module path is required")
	}
	path := c.Args().First()

	// Environment entries are validated before any engine work starts, so
	// a malformed -e fails as a usage error.
	env, err := wasi.ParseEnv(c.StringSlice("env"))
	if err != nil {
		return err
	}

	if c.Bool("verbose") {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		engine.SetLogger(logger)
	}

	wasm, err := os.ReadFile(path)
	if err != nil {
		return errors.Load(path, err)
	}

	if c.Bool("list") {
		exports, err := invoke.ListExports(c.Context, wasm)
		if err != nil {
			return err
		}
		for _, sig := range exports {
			fmt.Println(sig)
		}
		return nil
	}

	driver := invoke.NewDriver(invoke.Options{
		Wasm:         wasm,
		Name:         path,
		Function:     c.String("invoke"),
		Args:         c.Args().Tail(),
		Env:          env,
		AllowedHosts: c.StringSlice("allowed-host"),
		Concurrency:  c.Int("concurrency"),
	})

	res, err := driver.Run(c.Context)
	if err != nil {
		return err
	}
	for _, v := range res.Values {
		fmt.Println(v)
	}
	return nil
}

// Package wasmtest provides tiny hand-assembled wasm binaries shared by the
// host's tests. Each fixture is the binary encoding of the WAT shown in its
// comment; keeping them as literal sections avoids a text-format dependency.
package wasmtest

// header is the wasm binary magic and version.
var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func module(sections ...[]byte) []byte {
	out := append([]byte{}, header...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// AddModule exports "add":
//
//	(func (export "add") (param i32 i32) (result i32)
//	  (i32.add (local.get 0) (local.get 1)))
func AddModule() []byte {
	return module(
		[]byte{0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00},
		[]byte{0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b},
	)
}

// F32IdentityModule exports "id":
//
//	(func (export "id") (param f32) (result f32) (local.get 0))
func F32IdentityModule() []byte {
	return module(
		[]byte{0x01, 0x06, 0x01, 0x60, 0x01, 0x7d, 0x01, 0x7d},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x06, 0x01, 0x02, 'i', 'd', 0x00, 0x00},
		[]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x20, 0x00, 0x0b},
	)
}

// F64IdentityModule exports "id":
//
//	(func (export "id") (param f64) (result f64) (local.get 0))
func F64IdentityModule() []byte {
	return module(
		[]byte{0x01, 0x06, 0x01, 0x60, 0x01, 0x7c, 0x01, 0x7c},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x06, 0x01, 0x02, 'i', 'd', 0x00, 0x00},
		[]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x20, 0x00, 0x0b},
	)
}

// CountdownModule exports "count", which recurses n+1 times. Each entry is
// one metered function call, so a large n forces fuel yields:
//
//	(func $count (export "count") (param i32)
//	  (if (i32.eqz (local.get 0)) (then (return)))
//	  (call $count (i32.sub (local.get 0) (i32.const 1))))
func CountdownModule() []byte {
	return module(
		[]byte{0x01, 0x05, 0x01, 0x60, 0x01, 0x7f, 0x00},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x09, 0x01, 0x05, 'c', 'o', 'u', 'n', 't', 0x00, 0x00},
		[]byte{0x0a, 0x12, 0x01, 0x10, 0x00,
			0x20, 0x00, 0x45, 0x04, 0x40, 0x0f, 0x0b,
			0x20, 0x00, 0x41, 0x01, 0x6b, 0x10, 0x00, 0x0b},
	)
}

// StartModule exports an empty "_start":
//
//	(func (export "_start"))
func StartModule() []byte {
	return module(
		[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x0a, 0x01, 0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x00},
		[]byte{0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b},
	)
}

// TrapModule exports "boom", which traps immediately:
//
//	(func (export "boom") (unreachable))
func TrapModule() []byte {
	return module(
		[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x08, 0x01, 0x04, 'b', 'o', 'o', 'm', 0x00, 0x00},
		[]byte{0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b},
	)
}

// MemoryModule exports one page of linear memory and nothing else:
//
//	(memory (export "memory") 1)
func MemoryModule() []byte {
	return module(
		[]byte{0x05, 0x03, 0x01, 0x00, 0x01},
		[]byte{0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00},
	)
}

// HTTPCloseModule imports the capability's close function and forwards a
// handle to it:
//
//	(import "wasi_experimental_http" "close" (func (param i32) (result i32)))
//	(func (export "run") (param i32) (result i32)
//	  (call 0 (local.get 0)))
func HTTPCloseModule() []byte {
	return module(
		[]byte{0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f},
		[]byte{0x02, 0x20, 0x01,
			0x16, 'w', 'a', 's', 'i', '_', 'e', 'x', 'p', 'e', 'r', 'i', 'm',
			'e', 'n', 't', 'a', 'l', '_', 'h', 't', 't', 'p',
			0x05, 'c', 'l', 'o', 's', 'e', 0x00, 0x00},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x01},
		[]byte{0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b},
	)
}

// NeedsImportModule declares an import no host registers:
//
//	(import "host" "missing" (func))
//	(func (export "_start") (call 0))
func NeedsImportModule() []byte {
	return module(
		[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
		[]byte{0x02, 0x10, 0x01, 0x04, 'h', 'o', 's', 't',
			0x07, 'm', 'i', 's', 's', 'i', 'n', 'g', 0x00, 0x00},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x0a, 0x01, 0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x01},
		[]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x10, 0x00, 0x0b},
	)
}

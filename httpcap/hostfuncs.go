package httpcap

import (
	"context"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-host/linker"
)

// Register binds the capability's entry points into the shared linker
// namespace. Must complete before the guest module is instantiated.
func (c *Capability) Register(l *linker.Linker) error {
	i32 := api.ValueTypeI32
	result := []api.ValueType{i32}

	l.Namespace(Namespace).
		DefineFunc("req", c.reqFn,
			[]api.ValueType{i32, i32, i32, i32, i32, i32, i32, i32, i32, i32}, result).
		DefineFunc("close", c.closeFn,
			[]api.ValueType{i32}, result).
		DefineFunc("body_read", c.bodyReadFn,
			[]api.ValueType{i32, i32, i32, i32}, result).
		DefineFunc("header_get", c.headerGetFn,
			[]api.ValueType{i32, i32, i32, i32, i32, i32}, result).
		DefineFunc("headers_get_all", c.headersGetAllFn,
			[]api.ValueType{i32, i32, i32, i32}, result)

	return nil
}

// req(url, url_len, method, method_len, headers, headers_len, body,
// body_len, status_ptr, handle_ptr) -> error
func (c *Capability) reqFn(ctx context.Context, mod api.Module, stack []uint64) {
	mem := mod.Memory()
	if mem == nil {
		stack[0] = uint64(ErrMemoryNotFound)
		return
	}

	rawURL, code := readString(mem, stack[0], stack[1])
	if code != ErrOK {
		stack[0] = uint64(code)
		return
	}
	method, code := readString(mem, stack[2], stack[3])
	if code != ErrOK {
		stack[0] = uint64(code)
		return
	}
	rawHeaders, code := readString(mem, stack[4], stack[5])
	if code != ErrOK {
		stack[0] = uint64(code)
		return
	}
	body, ok := readBytes(mem, stack[6], stack[7])
	if !ok {
		stack[0] = uint64(ErrMemoryAccess)
		return
	}

	handle, status, code := c.request(ctx, method, rawURL, parseHeaders(rawHeaders), body)
	if code != ErrOK {
		stack[0] = uint64(code)
		return
	}

	if !mem.WriteUint32Le(uint32(stack[8]), status) || !mem.WriteUint32Le(uint32(stack[9]), handle) {
		c.drop(handle)
		stack[0] = uint64(ErrMemoryAccess)
		return
	}
	stack[0] = uint64(ErrOK)
}

// close(handle) -> error
func (c *Capability) closeFn(_ context.Context, _ api.Module, stack []uint64) {
	if !c.drop(uint32(stack[0])) {
		stack[0] = uint64(ErrInvalidHandle)
		return
	}
	stack[0] = uint64(ErrOK)
}

// body_read(handle, buf, buf_len, read_ptr) -> error
//
// Drains the response body incrementally; a read past the end writes zero
// bytes consumed.
func (c *Capability) bodyReadFn(_ context.Context, mod api.Module, stack []uint64) {
	s := c.get(uint32(stack[0]))
	if s == nil {
		stack[0] = uint64(ErrInvalidHandle)
		return
	}

	mem := mod.Memory()
	if mem == nil {
		stack[0] = uint64(ErrMemoryNotFound)
		return
	}

	bufPtr, bufLen := uint32(stack[1]), int(uint32(stack[2]))

	c.mu.Lock()
	remaining := s.body[s.offset:]
	n := len(remaining)
	if n > bufLen {
		n = bufLen
	}
	chunk := remaining[:n]
	s.offset += n
	c.mu.Unlock()

	if n > 0 && !mem.Write(bufPtr, chunk) {
		stack[0] = uint64(ErrMemoryAccess)
		return
	}
	if !mem.WriteUint32Le(uint32(stack[3]), uint32(n)) {
		stack[0] = uint64(ErrMemoryAccess)
		return
	}
	stack[0] = uint64(ErrOK)
}

// header_get(handle, name, name_len, value_buf, value_buf_len,
// written_ptr) -> error
func (c *Capability) headerGetFn(_ context.Context, mod api.Module, stack []uint64) {
	s := c.get(uint32(stack[0]))
	if s == nil {
		stack[0] = uint64(ErrInvalidHandle)
		return
	}

	mem := mod.Memory()
	if mem == nil {
		stack[0] = uint64(ErrMemoryNotFound)
		return
	}

	name, code := readString(mem, stack[1], stack[2])
	if code != ErrOK {
		stack[0] = uint64(code)
		return
	}

	// Values distinguishes a header set to "" from one that is absent.
	values := s.header.Values(name)
	if len(values) == 0 {
		stack[0] = uint64(ErrHeaderNotFound)
		return
	}
	value := values[0]
	if len(value) > int(uint32(stack[4])) {
		stack[0] = uint64(ErrBufferTooSmall)
		return
	}

	if len(value) > 0 && !mem.Write(uint32(stack[3]), []byte(value)) {
		stack[0] = uint64(ErrMemoryAccess)
		return
	}
	if !mem.WriteUint32Le(uint32(stack[5]), uint32(len(value))) {
		stack[0] = uint64(ErrMemoryAccess)
		return
	}
	stack[0] = uint64(ErrOK)
}

// headers_get_all(handle, buf, buf_len, written_ptr) -> error
func (c *Capability) headersGetAllFn(_ context.Context, mod api.Module, stack []uint64) {
	s := c.get(uint32(stack[0]))
	if s == nil {
		stack[0] = uint64(ErrInvalidHandle)
		return
	}

	mem := mod.Memory()
	if mem == nil {
		stack[0] = uint64(ErrMemoryNotFound)
		return
	}

	encoded := renderHeaders(s.header)
	if len(encoded) > int(uint32(stack[2])) {
		stack[0] = uint64(ErrBufferTooSmall)
		return
	}

	if !mem.Write(uint32(stack[1]), []byte(encoded)) ||
		!mem.WriteUint32Le(uint32(stack[3]), uint32(len(encoded))) {
		stack[0] = uint64(ErrMemoryAccess)
		return
	}
	stack[0] = uint64(ErrOK)
}

// readString copies a guest string, rejecting out-of-range pointers and
// invalid UTF-8. Returns the string and an ABI error code.
func readString(mem api.Memory, ptr, length uint64) (string, uint32) {
	data, ok := mem.Read(uint32(ptr), uint32(length))
	if !ok {
		return "", ErrMemoryAccess
	}
	if !utf8.Valid(data) {
		return "", ErrUTF8
	}
	return string(data), ErrOK
}

func readBytes(mem api.Memory, ptr, length uint64) ([]byte, bool) {
	if length == 0 {
		return nil, true
	}
	data, ok := mem.Read(uint32(ptr), uint32(length))
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

package invoke

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-host/errors"
)

// valueTypeV128 is the wasm binary encoding for v128 (0x7b); wazero does
// not export it from its api package.
const valueTypeV128 = api.ValueType(0x7b)

// typeName maps a wazero value type to the name shown in diagnostics.
func typeName(vt api.ValueType) string {
	switch vt {
	case api.ValueTypeI32:
		return "i32"
	case api.ValueTypeI64:
		return "i64"
	case api.ValueTypeF32:
		return "f32"
	case api.ValueTypeF64:
		return "f64"
	case valueTypeV128:
		return "v128"
	case api.ValueTypeExternref:
		return "externref"
	default:
		return "funcref"
	}
}

// ParseArgs coerces one textual token per declared parameter into raw
// stack values. The count is checked before any token is parsed, so a
// wrong arity never surfaces as a parse failure.
func ParseArgs(params []api.ValueType, tokens []string) ([]uint64, error) {
	if len(tokens) != len(params) {
		return nil, errors.ArgumentCount(len(params), len(tokens))
	}

	stack := make([]uint64, 0, len(params))
	for i, vt := range params {
		var v uint64
		switch vt {
		case api.ValueTypeI32:
			n, err := strconv.ParseInt(tokens[i], 10, 32)
			if err != nil {
				return nil, errors.ArgumentParse(i, "i32", tokens[i], err)
			}
			v = api.EncodeI32(int32(n))
		case api.ValueTypeI64:
			n, err := strconv.ParseInt(tokens[i], 10, 64)
			if err != nil {
				return nil, errors.ArgumentParse(i, "i64", tokens[i], err)
			}
			v = api.EncodeI64(n)
		case api.ValueTypeF32:
			f, err := strconv.ParseFloat(tokens[i], 32)
			if err != nil {
				return nil, errors.ArgumentParse(i, "f32", tokens[i], err)
			}
			v = api.EncodeF32(float32(f))
		case api.ValueTypeF64:
			f, err := strconv.ParseFloat(tokens[i], 64)
			if err != nil {
				return nil, errors.ArgumentParse(i, "f64", tokens[i], err)
			}
			v = api.EncodeF64(f)
		default:
			return nil, errors.UnsupportedParameter(i, typeName(vt))
		}
		stack = append(stack, v)
	}
	return stack, nil
}

// RenderResults formats raw stack values for display, one string per
// declared result. A v128 result occupies two stack slots.
func RenderResults(results []api.ValueType, stack []uint64) []string {
	out := make([]string, 0, len(results))
	pos := 0
	for _, vt := range results {
		if pos >= len(stack) {
			break
		}
		switch vt {
		case api.ValueTypeI32:
			out = append(out, strconv.FormatInt(int64(api.DecodeI32(stack[pos])), 10))
		case api.ValueTypeI64:
			out = append(out, strconv.FormatInt(int64(stack[pos]), 10))
		case api.ValueTypeF32:
			out = append(out, strconv.FormatFloat(float64(api.DecodeF32(stack[pos])), 'g', -1, 32))
		case api.ValueTypeF64:
			out = append(out, strconv.FormatFloat(api.DecodeF64(stack[pos]), 'g', -1, 64))
		case valueTypeV128:
			out = append(out, "<v128>")
			pos++ // second lane
		case api.ValueTypeExternref:
			out = append(out, "<externref>")
		default:
			out = append(out, "<ref>")
		}
		pos++
	}
	return out
}

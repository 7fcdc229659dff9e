package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// canonicalBytes encodes a packed value tree (the nil/bool/int64/string/
// map[string]any/[]any shapes produced by packValue) into a deterministic
// byte sequence: object keys in plain lexicographic order (spec.md is
// explicit that this is NOT the RFC 8785 UTF-16 code-unit order the rest
// of this codebase's canonicalizer otherwise follows), no insignificant
// whitespace, NFC-normalized strings.
func canonicalBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case string:
		return canonicalString(val)
	case map[string]any:
		return canonicalObject(val)
	case []any:
		return canonicalArray(val)
	default:
		return nil, fmt.Errorf("resource: unsupported canonical value %T", v)
	}
}

func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("resource: canonical string encode: %w", err)
	}
	// json.Encoder always appends a trailing newline; strip it.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func canonicalObject(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := canonicalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := canonicalBytes(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func canonicalArray(a []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := canonicalBytes(elem)
		if err != nil {
			return nil, err
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// encodeFloat decomposes f into its IEEE-754 sign, exponent, and mantissa
// fields so that every distinct bit pattern — including -0, NaN, and the
// infinities — canonicalizes to a distinct, fixed-shape value, and every
// pair of equal float64 values (same bits) canonicalizes identically.
func encodeFloat(f float64) map[string]any {
	bits := math.Float64bits(f)
	sign := int64(bits >> 63)
	exp := int64((bits >> 52) & 0x7FF)
	mantissa := int64(bits & 0xFFFFFFFFFFFFF)
	return map[string]any{
		"sign":     sign,
		"exp":      exp,
		"mantissa": mantissa,
	}
}

func decodeFloat(m map[string]any) (float64, error) {
	sign, err := asInt64(m["sign"])
	if err != nil {
		return 0, err
	}
	exp, err := asInt64(m["exp"])
	if err != nil {
		return 0, err
	}
	mantissa, err := asInt64(m["mantissa"])
	if err != nil {
		return 0, err
	}
	bits := uint64(sign)<<63 | uint64(exp)<<52 | uint64(mantissa)
	return math.Float64frombits(bits), nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("resource: expected integer, got %T", v)
	}
}

package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// It is the only serialization used for descriptor fingerprints and golden
// snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats and no null
//
// Accepted inputs are string, bool, int, int64, []any, map[string]any and the
// descriptor types of this package.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case Direction:
		return marshalCanonicalString(string(val))
	case int:
		return []byte(strconv.Itoa(val)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case *OperationDescriptor:
		if val == nil {
			return nil, fmt.Errorf("null is forbidden in canonical JSON")
		}
		return marshalCanonicalObject(val.canonicalMap())
	case OperationDescriptor:
		return marshalCanonicalObject(val.canonicalMap())
	case MethodDecl:
		return marshalCanonicalObject(val.canonicalMap())
	case ContractDecl:
		return marshalCanonicalObject(val.canonicalMap())
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape preceded by an odd
// number of backslashes is literal text and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') && precedingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func precedingBackslashes(b []byte) int {
	n := 0
	for j := len(b) - 1; j >= 0 && b[j] == '\\'; j-- {
		n++
	}
	return n
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's native string comparison uses UTF-8 bytes, which orders
// supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

func (t TypeRef) canonicalMap() map[string]any {
	return map[string]any{
		"name":             t.Name,
		"message_contract": t.MessageContract,
		"wrapper_name":     t.WrapperName,
	}
}

func (p ParamDecl) canonicalMap() map[string]any {
	return map[string]any{
		"name":              p.Name,
		"type":              p.Type.canonicalMap(),
		"is_out":            p.IsOut,
		"is_by_ref":         p.IsByRef,
		"element_name":      p.ElementName,
		"element_namespace": p.ElementNamespace,
		"message_name":      p.MessageName,
	}
}

func (f FaultDecl) canonicalMap() map[string]any {
	return map[string]any{
		"detail":    f.Detail.canonicalMap(),
		"name":      f.Name,
		"namespace": f.Namespace,
		"action":    f.Action,
	}
}

func (m MethodDecl) canonicalMap() map[string]any {
	params := make([]any, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.canonicalMap()
	}
	faults := make([]any, len(m.Faults))
	for i, f := range m.Faults {
		faults[i] = f.canonicalMap()
	}
	return map[string]any{
		"name":   m.Name,
		"params": params,
		"return": map[string]any{
			"type": m.Return.Type.canonicalMap(),
			"name": m.Return.Name,
		},
		"operation": map[string]any{
			"name":         m.Operation.Name,
			"action":       m.Operation.Action,
			"reply_action": m.Operation.ReplyAction,
			"is_one_way":   m.Operation.IsOneWay,
		},
		"faults": faults,
	}
}

func (c ContractDecl) canonicalMap() map[string]any {
	methods := make([]any, len(c.Methods))
	for i, m := range c.Methods {
		methods[i] = m.canonicalMap()
	}
	return map[string]any{
		"context": map[string]any{
			"namespace": c.Context.Namespace,
			"name":      c.Context.Name,
		},
		"methods": methods,
	}
}

func (o OperationDescriptor) canonicalMap() map[string]any {
	params := make([]any, len(o.AllParameters))
	for i, p := range o.AllParameters {
		params[i] = map[string]any{
			"index":          p.Index,
			"direction":      p.Direction,
			"wire_name":      p.WireName,
			"wire_namespace": p.WireNamespace,
			"param":          p.Param.canonicalMap(),
		}
	}
	faults := make([]any, len(o.Faults))
	for i, f := range o.Faults {
		faults[i] = map[string]any{
			"payload_type": f.PayloadType.canonicalMap(),
			"namespace":    f.Namespace,
			"name":         f.Name,
			"element_name": f.ElementName,
			"action":       f.Action,
		}
	}
	contract := map[string]any{}
	if o.Contract != nil {
		contract["namespace"] = o.Contract.Namespace
		contract["name"] = o.Contract.Name
	}
	return map[string]any{
		"contract":            contract,
		"name":                o.Name,
		"soap_action":         o.SOAPAction,
		"reply_action":        o.ReplyAction,
		"is_one_way":          o.IsOneWay,
		"is_request_wrapped":  o.IsRequestWrapped,
		"is_response_wrapped": o.IsResponseWrapped,
		"all_parameters":      params,
		"faults":              faults,
		"return_wire_name":    o.ReturnWireName,
		"method":              o.Method.canonicalMap(),
	}
}

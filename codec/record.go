package codec

import "github.com/dcsommer/vldmgo/errors"

// Symbol is an alternate, non-string key form accepted wherever a map
// field name is expected, mirroring a legacy format that could carry
// either JSON-style string keys or symbol-equivalent keys. Decoding always
// produces the canonical string form; Symbol exists purely so an encoder
// input built from either representation is accepted without translation.
type Symbol string

const (
	mapNullSentinel    byte = 0xFF // signed -1
	mapNonNullSentinel byte = 0x01
)

// Encode serialises value against schema and returns the encoded bytes.
func Encode(schema *Schema, value interface{}) ([]byte, error) {
	w := &writer{}
	if err := encodeNode(w, schema, value); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// Decode deserialises data against schema and returns the decoded value:
// a Go primitive, nil (NULL), a map[string]interface{}, or a []interface{}.
func Decode(schema *Schema, data []byte) (interface{}, error) {
	r := &reader{data: data}
	return decodeNode(r, schema)
}

func encodeNode(w *writer, schema *Schema, value interface{}) error {
	switch schema.Kind {
	case KindPrimitive:
		return encodePrimitive(w, schema.Primitive, value)
	case KindMap:
		return encodeMap(w, schema, value)
	case KindList:
		return encodeList(w, schema, value)
	default:
		return errors.NewServer(errors.CodeResponseParseFailure, "unknown schema kind %d", schema.Kind)
	}
}

func decodeNode(r *reader, schema *Schema) (interface{}, error) {
	switch schema.Kind {
	case KindPrimitive:
		return decodePrimitive(r, schema.Primitive)
	case KindMap:
		return decodeMap(r, schema)
	case KindList:
		return decodeList(r, schema)
	default:
		return nil, errors.NewServer(errors.CodeResponseParseFailure, "unknown schema kind %d", schema.Kind)
	}
}

// --------------------------------------------------------------------------
// map
// --------------------------------------------------------------------------

func encodeMap(w *writer, schema *Schema, value interface{}) error {
	if value == nil {
		w.writeByte(mapNullSentinel)
		return nil
	}

	fields, err := normalizeMapInput(value)
	if err != nil {
		return err
	}

	want := schema.fieldNameSet()
	if len(fields) != len(want) {
		return errors.NewClient(errors.CodeSchemaMismatch, "map value has %d fields, schema expects %d", len(fields), len(want))
	}
	for name := range fields {
		if _, ok := want[name]; !ok {
			return errors.NewClient(errors.CodeSchemaMismatch, "map value has unexpected field %q", name)
		}
	}

	w.writeByte(mapNonNullSentinel)
	for _, f := range schema.sortedFields() {
		v, ok := fields[f.Name]
		if !ok {
			return errors.NewClient(errors.CodeSchemaMismatch, "map value is missing field %q", f.Name)
		}
		if err := encodeNode(w, f.Schema, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeMap(r *reader, schema *Schema) (interface{}, error) {
	marker, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if marker == mapNullSentinel {
		return nil, nil
	}
	if marker != mapNonNullSentinel {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, nil, "invalid map marker byte 0x%02x", marker)
	}

	out := make(map[string]interface{}, len(schema.Fields))
	for _, f := range schema.sortedFields() {
		v, err := decodeNode(r, f.Schema)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// normalizeMapInput accepts a map[string]interface{} or a
// map[Symbol]interface{} and returns the canonical string-keyed form.
func normalizeMapInput(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case map[Symbol]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[string(k)] = val
		}
		return out, nil
	default:
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "expected a map value, got %T", value)
	}
}

// --------------------------------------------------------------------------
// list
// --------------------------------------------------------------------------

func encodeList(w *writer, schema *Schema, value interface{}) error {
	if schema.Element == nil {
		return errors.NewServer(errors.CodeResponseParseFailure, "list schema must have exactly one element schema")
	}
	if value == nil {
		writeNullLength(w)
		return nil
	}

	items, err := normalizeListInput(value)
	if err != nil {
		return err
	}

	if err := writeLength(w, len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := encodeNode(w, schema.Element, item); err != nil {
			return err
		}
	}
	return nil
}

func decodeList(r *reader, schema *Schema) (interface{}, error) {
	if schema.Element == nil {
		return nil, errors.NewServer(errors.CodeResponseParseFailure, "list schema must have exactly one element schema")
	}
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		v, err := decodeNode(r, schema.Element)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func normalizeListInput(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	default:
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "expected a list value, got %T", value)
	}
}

package codec

import (
	"math"
	"time"

	"github.com/dcsommer/vldmgo/errors"
)

const (
	boolNullSentinel byte = 0x80

	int8Min  int64 = math.MinInt8
	int16Min int64 = math.MinInt16
	int32Min int64 = math.MinInt32
	int64Min int64 = math.MinInt64
)

// float32NullSentinel and float64NullSentinel are the smallest positive
// denormals of their respective widths, reserved as NULL markers so a
// finite non-null value can never collide with them by construction of the
// format (callers who happen to hold that exact denormal are rejected at
// encode time, per spec).
var (
	float32NullSentinel = math.Float32frombits(1)
	float64NullSentinel = math.Float64frombits(1)
)

func encodePrimitive(w *writer, typeName string, value interface{}) error {
	switch typeName {
	case TypeBoolean:
		return encodeBoolean(w, value)
	case TypeInt8:
		return encodeInt(w, value, 1, int8Min)
	case TypeInt16:
		return encodeInt(w, value, 2, int16Min)
	case TypeInt32:
		return encodeInt(w, value, 4, int32Min)
	case TypeInt64:
		return encodeInt64(w, value)
	case TypeFloat32:
		return encodeFloat32(w, value)
	case TypeFloat64:
		return encodeFloat64(w, value)
	case TypeDate:
		return encodeDate(w, value)
	case TypeString:
		return encodeStringOrBytes(w, value, true)
	case TypeBytes:
		return encodeStringOrBytes(w, value, false)
	default:
		return errors.NewClient(errors.CodeSchemaMismatch, "unrecognised primitive schema type %q", typeName)
	}
}

func decodePrimitive(r *reader, typeName string) (interface{}, error) {
	switch typeName {
	case TypeBoolean:
		return decodeBoolean(r)
	case TypeInt8:
		return decodeInt8(r)
	case TypeInt16:
		return decodeInt16(r)
	case TypeInt32:
		return decodeInt32(r)
	case TypeInt64:
		v, err := decodeRawInt64(r)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		return v.(int64), nil
	case TypeFloat32:
		return decodeFloat32(r)
	case TypeFloat64:
		return decodeFloat64(r)
	case TypeDate:
		return decodeDate(r)
	case TypeString:
		return decodeStringOrBytes(r, true)
	case TypeBytes:
		return decodeStringOrBytes(r, false)
	default:
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "unrecognised primitive schema type %q", typeName)
	}
}

// --------------------------------------------------------------------------
// boolean
// --------------------------------------------------------------------------

func encodeBoolean(w *writer, value interface{}) error {
	if value == nil {
		w.writeByte(boolNullSentinel)
		return nil
	}
	b, ok := value.(bool)
	if !ok {
		return errors.NewClient(errors.CodeSchemaMismatch, "expected bool, got %T", value)
	}
	if b {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
	return nil
}

func decodeBoolean(r *reader) (interface{}, error) {
	b, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if b == boolNullSentinel {
		return nil, nil
	}
	return b != 0, nil
}

// --------------------------------------------------------------------------
// signed integers (int8/int16/int32 share one width-generic helper; int64
// is handled separately because it is written as two 32-bit halves)
// --------------------------------------------------------------------------

func encodeInt(w *writer, value interface{}, width int, min int64) error {
	if value == nil {
		return writeIntWidth(w, width, min)
	}
	v, err := toInt64(value)
	if err != nil {
		return err
	}
	// Writes reject any value <= MIN for the width: MIN is reserved as the
	// NULL sentinel, so it can never be produced as a real encoded value.
	if v <= min {
		return errors.NewClient(errors.CodeValueOutOfRange, "value %d is out of range for a %d-bit signed int (must be > %d)", v, width*8, min)
	}
	return writeIntWidth(w, width, v)
}

func writeIntWidth(w *writer, width int, v int64) error {
	switch width {
	case 1:
		w.writeByte(byte(int8(v)))
	case 2:
		w.writeUint16(uint16(int16(v)))
	case 4:
		w.writeUint32(uint32(int32(v)))
	default:
		return errors.NewServer(errors.CodeResponseParseFailure, "unsupported integer width %d", width)
	}
	return nil
}

func decodeInt8(r *reader) (interface{}, error) {
	b, err := r.readByte()
	if err != nil {
		return nil, err
	}
	v := int8(b)
	if int64(v) == int8Min {
		return nil, nil
	}
	return v, nil
}

func decodeInt16(r *reader) (interface{}, error) {
	u, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	v := int16(u)
	if int64(v) == int16Min {
		return nil, nil
	}
	return v, nil
}

func decodeInt32(r *reader) (interface{}, error) {
	v, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	if int64(v) == int32Min {
		return nil, nil
	}
	return v, nil
}

func encodeInt64(w *writer, value interface{}) error {
	if value == nil {
		writeInt64Halves(w, int64Min)
		return nil
	}
	v, err := toInt64(value)
	if err != nil {
		return err
	}
	if v <= int64Min {
		return errors.NewClient(errors.CodeValueOutOfRange, "value %d is out of range for a 64-bit signed int", v)
	}
	writeInt64Halves(w, v)
	return nil
}

func writeInt64Halves(w *writer, v int64) {
	high := int32(v >> 32)
	low := int32(v & 0xFFFFFFFF)
	w.writeInt32(high)
	w.writeInt32(low)
}

// decodeRawInt64 returns (nil, nil) for the NULL sentinel and (int64,
// nil) otherwise, boxed as interface{} so decodePrimitive and decodeDate
// can share it.
func decodeRawInt64(r *reader) (interface{}, error) {
	high, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	low, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	v := (int64(high) << 32) | (int64(uint32(low)))
	if v == int64Min {
		return nil, nil
	}
	return v, nil
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, errors.NewClient(errors.CodeSchemaMismatch, "expected an integer, got %T", value)
	}
}

// --------------------------------------------------------------------------
// floats
// --------------------------------------------------------------------------

func encodeFloat32(w *writer, value interface{}) error {
	if value == nil {
		w.writeUint32(math.Float32bits(float32NullSentinel))
		return nil
	}
	f, err := toFloat32(value)
	if err != nil {
		return err
	}
	if f == float32NullSentinel {
		return errors.NewClient(errors.CodeValueOutOfRange, "float32 value collides with the reserved NULL sentinel")
	}
	w.writeUint32(math.Float32bits(f))
	return nil
}

func decodeFloat32(r *reader) (interface{}, error) {
	bits, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	f := math.Float32frombits(bits)
	if f == float32NullSentinel {
		return nil, nil
	}
	return f, nil
}

func encodeFloat64(w *writer, value interface{}) error {
	if value == nil {
		w.writeUint64(math.Float64bits(float64NullSentinel))
		return nil
	}
	f, err := toFloat64(value)
	if err != nil {
		return err
	}
	if f == float64NullSentinel {
		return errors.NewClient(errors.CodeValueOutOfRange, "float64 value collides with the reserved NULL sentinel")
	}
	w.writeUint64(math.Float64bits(f))
	return nil
}

func decodeFloat64(r *reader) (interface{}, error) {
	bits, err := r.readUint64()
	if err != nil {
		return nil, err
	}
	f := math.Float64frombits(bits)
	if f == float64NullSentinel {
		return nil, nil
	}
	return f, nil
}

func toFloat32(value interface{}) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	default:
		return 0, errors.NewClient(errors.CodeSchemaMismatch, "expected a float32, got %T", value)
	}
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, errors.NewClient(errors.CodeSchemaMismatch, "expected a float64, got %T", value)
	}
}

// --------------------------------------------------------------------------
// date (encoded as int64 milliseconds since epoch)
// --------------------------------------------------------------------------

func encodeDate(w *writer, value interface{}) error {
	if value == nil {
		writeInt64Halves(w, int64Min)
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return errors.NewClient(errors.CodeSchemaMismatch, "expected time.Time, got %T", value)
	}
	millis := t.UnixMilli()
	if millis <= int64Min {
		return errors.NewClient(errors.CodeValueOutOfRange, "date %v out of encodable range", t)
	}
	writeInt64Halves(w, millis)
	return nil
}

func decodeDate(r *reader) (interface{}, error) {
	raw, err := decodeRawInt64(r)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return time.UnixMilli(raw.(int64)).UTC(), nil
}

// --------------------------------------------------------------------------
// string / bytes
// --------------------------------------------------------------------------

func encodeStringOrBytes(w *writer, value interface{}, asString bool) error {
	if value == nil {
		writeNullLength(w)
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		if asString {
			return errors.NewClient(errors.CodeSchemaMismatch, "expected string, got %T", value)
		}
		return errors.NewClient(errors.CodeSchemaMismatch, "expected []byte, got %T", value)
	}
	if err := writeLength(w, len(raw)); err != nil {
		return err
	}
	w.writeBytes(raw)
	return nil
}

func decodeStringOrBytes(r *reader, asString bool) (interface{}, error) {
	length, err := readLength(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, nil
	}
	raw, err := r.readBytes(length)
	if err != nil {
		return nil, err
	}
	if asString {
		return string(raw), nil
	}
	return raw, nil
}

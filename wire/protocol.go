package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dcsommer/vldmgo/errors"
)

// Field numbers for the two hand-rolled message shapes. There is no .proto
// source for these: the wire layout is fixed by this client and its peers,
// so the numbers below are simply the contract.
const (
	fieldRequestType        protowire.Number = 1
	fieldRequestShouldRoute protowire.Number = 2
	fieldRequestStore       protowire.Number = 3
	fieldRequestGet         protowire.Number = 4

	fieldGetPayloadKey protowire.Number = 1

	fieldResponseVersioned protowire.Number = 1
	fieldResponseError     protowire.Number = 2

	fieldVersionedValue   protowire.Number = 1
	fieldVersionedVersion protowire.Number = 2

	fieldVectorClockEntries   protowire.Number = 1
	fieldVectorClockTimestamp protowire.Number = 2

	fieldErrorCode    protowire.Number = 1
	fieldErrorMessage protowire.Number = 2
)

// requestTypeGet is the only Request.type value this client produces.
const requestTypeGet = 0

const keyNotFoundErrorCode = 1

// VectorClock is the version metadata attached to a stored value.
type VectorClock struct {
	Entries      []uint64
	Timestamp    int64
	HasTimestamp bool
}

// VersionedValue pairs a stored value with the VectorClock it was written
// with.
type VersionedValue struct {
	Value   []byte
	Version VectorClock
}

// BuildGet serialises a get Request for store/key: {type: GET,
// should_route: false, store, get: {key}}. Fields at their proto3 zero
// value (type=GET, should_route=false) are omitted, matching the encoding a
// generated proto3 marshaler would produce.
func BuildGet(store string, key []byte) []byte {
	var payload []byte
	payload = protowire.AppendTag(payload, fieldGetPayloadKey, protowire.BytesType)
	payload = protowire.AppendBytes(payload, key)

	var body []byte
	body = protowire.AppendTag(body, fieldRequestStore, protowire.BytesType)
	body = protowire.AppendBytes(body, []byte(store))
	body = protowire.AppendTag(body, fieldRequestGet, protowire.BytesType)
	body = protowire.AppendBytes(body, payload)
	return body
}

// ParseGet decodes a Request body built by BuildGet, returning the store
// name and key. It is used by test fixtures and by any component that needs
// to inspect an already-built frame.
func ParseGet(body []byte) (store string, key []byte, err error) {
	var (
		gotStore    bool
		gotKey      bool
		shouldRoute bool
	)
	err = visitFields(body, func(num protowire.Number, typ protowire.Type, tail []byte) (int, error) {
		switch num {
		case fieldRequestType:
			v, n, e := consumeVarintField(tail)
			if e != nil {
				return 0, e
			}
			if v != requestTypeGet {
				return 0, errors.NewClient(errors.CodeSchemaMismatch, "unsupported request type %d", v)
			}
			return n, nil
		case fieldRequestShouldRoute:
			v, n, e := consumeVarintField(tail)
			if e != nil {
				return 0, e
			}
			shouldRoute = v != 0
			return n, nil
		case fieldRequestStore:
			v, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			store, gotStore = string(v), true
			return n, nil
		case fieldRequestGet:
			v, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			k, e := parseGetPayload(v)
			if e != nil {
				return 0, e
			}
			key, gotKey = k, true
			return n, nil
		default:
			return skipField(typ, tail)
		}
	})
	if err != nil {
		return "", nil, err
	}
	if !gotStore || !gotKey {
		return "", nil, errors.WrapServer(errors.CodeResponseParseFailure, nil, "request body missing store or get.key")
	}
	if shouldRoute {
		return "", nil, errors.NewClient(errors.CodeSchemaMismatch, "should_route=true is not produced by this client")
	}
	return store, key, nil
}

func parseGetPayload(data []byte) ([]byte, error) {
	var key []byte
	var got bool
	err := visitFields(data, func(num protowire.Number, typ protowire.Type, tail []byte) (int, error) {
		if num == fieldGetPayloadKey {
			v, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			key, got = v, true
			return n, nil
		}
		return skipField(typ, tail)
	})
	if err != nil {
		return nil, err
	}
	if !got {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, nil, "get payload missing key")
	}
	return key, nil
}

// ParseGetResponse decodes a GetResponse body and applies the client's
// error/empty-result classification: a non-empty error.error_message is
// always a failure, mapped to KeyNotFound when error_code is the reserved
// "key not found" code and to a generic ServerError otherwise; an empty
// versioned list with no error also means KeyNotFound; otherwise the
// versioned entry with the highest timestamp wins ties broken by whichever
// was encountered first in the list.
func ParseGetResponse(store, key string, body []byte) (*VersionedValue, error) {
	var (
		versioned  []VersionedValue
		errCode    int32
		errMessage string
		hasError   bool
	)

	err := visitFields(body, func(num protowire.Number, typ protowire.Type, tail []byte) (int, error) {
		switch num {
		case fieldResponseVersioned:
			raw, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			vv, e := parseVersionedValue(raw)
			if e != nil {
				return 0, e
			}
			versioned = append(versioned, vv)
			return n, nil
		case fieldResponseError:
			raw, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			code, msg, e := parseErrorPayload(raw)
			if e != nil {
				return 0, e
			}
			errCode, errMessage, hasError = code, msg, true
			return n, nil
		default:
			return skipField(typ, tail)
		}
	})
	if err != nil {
		return nil, err
	}

	if hasError && errMessage != "" {
		if errCode == keyNotFoundErrorCode {
			return nil, errors.KeyNotFound(store, key)
		}
		return nil, errors.NewServer(errors.CodeUnknown, "remote error %d: %s", errCode, errMessage)
	}

	if len(versioned) == 0 {
		return nil, errors.KeyNotFound(store, key)
	}

	best := versioned[0]
	for _, v := range versioned[1:] {
		if v.Version.HasTimestamp && (!best.Version.HasTimestamp || v.Version.Timestamp > best.Version.Timestamp) {
			best = v
		}
	}
	return &best, nil
}

func parseVersionedValue(data []byte) (VersionedValue, error) {
	var vv VersionedValue
	err := visitFields(data, func(num protowire.Number, typ protowire.Type, tail []byte) (int, error) {
		switch num {
		case fieldVersionedValue:
			v, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			vv.Value = v
			return n, nil
		case fieldVersionedVersion:
			raw, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			vc, e := parseVectorClock(raw)
			if e != nil {
				return 0, e
			}
			vv.Version = vc
			return n, nil
		default:
			return skipField(typ, tail)
		}
	})
	return vv, err
}

func parseVectorClock(data []byte) (VectorClock, error) {
	var vc VectorClock
	err := visitFields(data, func(num protowire.Number, typ protowire.Type, tail []byte) (int, error) {
		switch num {
		case fieldVectorClockEntries:
			v, n, e := consumeVarintField(tail)
			if e != nil {
				return 0, e
			}
			vc.Entries = append(vc.Entries, v)
			return n, nil
		case fieldVectorClockTimestamp:
			v, n, e := consumeVarintField(tail)
			if e != nil {
				return 0, e
			}
			vc.Timestamp, vc.HasTimestamp = int64(v), true
			return n, nil
		default:
			return skipField(typ, tail)
		}
	})
	return vc, err
}

func parseErrorPayload(data []byte) (code int32, message string, err error) {
	err = visitFields(data, func(num protowire.Number, typ protowire.Type, tail []byte) (int, error) {
		switch num {
		case fieldErrorCode:
			v, n, e := consumeVarintField(tail)
			if e != nil {
				return 0, e
			}
			code = int32(v)
			return n, nil
		case fieldErrorMessage:
			v, n, e := consumeBytesField(tail)
			if e != nil {
				return 0, e
			}
			message = string(v)
			return n, nil
		default:
			return skipField(typ, tail)
		}
	})
	return code, message, err
}

// --------------------------------------------------------------------------
// protowire helpers
// --------------------------------------------------------------------------

// visitFields walks the tag-delimited fields of a protobuf message body,
// calling visit once per field with the bytes remaining after that field's
// tag. visit must return how many bytes of tail it consumed for that
// field's value.
func visitFields(data []byte, visit func(num protowire.Number, typ protowire.Type, tail []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.WrapServer(errors.CodeResponseParseFailure, nil, "malformed field tag")
		}
		data = data[n:]
		consumed, err := visit(num, typ, data)
		if err != nil {
			return err
		}
		if consumed <= 0 || consumed > len(data) {
			return errors.WrapServer(errors.CodeResponseParseFailure, nil, "malformed field body for field %d", num)
		}
		data = data[consumed:]
	}
	return nil
}

func consumeVarintField(tail []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(tail)
	if n < 0 {
		return 0, 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "malformed varint field")
	}
	return v, n, nil
}

func consumeBytesField(tail []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(tail)
	if n < 0 {
		return nil, 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "malformed length-delimited field")
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

// skipField consumes and discards one field's value of the given wire type,
// for forward compatibility with fields this client does not yet know
// about.
func skipField(typ protowire.Type, tail []byte) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, tail)
	if n < 0 {
		return 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "malformed field of unknown type %d", typ)
	}
	return n, nil
}

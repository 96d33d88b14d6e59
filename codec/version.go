package codec

import (
	"sort"

	"github.com/dcsommer/vldmgo/errors"
)

// VersionedSchema binds a store's serializer configuration: a set of
// schemas indexed by version number, and whether encoded values carry a
// leading version-tag byte.
type VersionedSchema struct {
	// Versions maps schema version number to schema. Version "none" (an
	// untagged, single-schema store) is stored under key 0.
	Versions map[int]*Schema
	// HasVersionTag mirrors the store config's hasVersionTag flag. When
	// false, no prefix byte is written or read, and schema 0 is always
	// used.
	HasVersionTag bool
}

// NewVersioned builds a VersionedSchema. hasVersionTag=false stores are
// expected to pass exactly one schema, at version 0.
func NewVersioned(hasVersionTag bool, versions map[int]*Schema) (*VersionedSchema, error) {
	if len(versions) == 0 {
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "at least one schema version is required")
	}
	if !hasVersionTag {
		if _, ok := versions[0]; !ok || len(versions) != 1 {
			return nil, errors.NewClient(errors.CodeSchemaMismatch, "an untagged serializer must declare exactly schema version 0")
		}
	}
	return &VersionedSchema{Versions: versions, HasVersionTag: hasVersionTag}, nil
}

// highestVersion returns the largest declared schema version, used by the
// writer, which always encodes with the newest schema.
func (v *VersionedSchema) highestVersion() int {
	max := 0
	first := true
	for version := range v.Versions {
		if first || version > max {
			max = version
			first = false
		}
	}
	return max
}

// sortedVersions returns declared versions in ascending order, used only
// for deterministic error messages.
func (v *VersionedSchema) sortedVersions() []int {
	out := make([]int, 0, len(v.Versions))
	for version := range v.Versions {
		out = append(out, version)
	}
	sort.Ints(out)
	return out
}

// EncodeVersioned encodes value with the highest-numbered schema. If
// HasVersionTag is set, the first emitted byte is that schema's version
// number.
func (v *VersionedSchema) EncodeVersioned(value interface{}) ([]byte, error) {
	version := 0
	if v.HasVersionTag {
		version = v.highestVersion()
	}
	schema, ok := v.Versions[version]
	if !ok {
		return nil, errors.NewServer(errors.CodeResponseParseFailure, "no schema registered for version %d", version)
	}

	body, err := Encode(schema, value)
	if err != nil {
		return nil, err
	}
	if !v.HasVersionTag {
		return body, nil
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(version))
	out = append(out, body...)
	return out, nil
}

// DecodeVersioned selects a schema by the leading version byte (if
// HasVersionTag) or schema 0 (if not), and decodes the remaining bytes.
func (v *VersionedSchema) DecodeVersioned(data []byte) (interface{}, error) {
	version := 0
	body := data
	if v.HasVersionTag {
		if len(data) < 1 {
			return nil, errors.WrapServer(errors.CodeResponseParseFailure, nil, "record too short for a version tag byte")
		}
		version = int(data[0])
		body = data[1:]
	}
	schema, ok := v.Versions[version]
	if !ok {
		return nil, errors.NewClient(errors.CodeUnknownSchemaVersion, "unrecognised schema version %d (known: %v)", version, v.sortedVersions())
	}
	return Decode(schema, body)
}

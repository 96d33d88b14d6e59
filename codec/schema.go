// Package codec implements the versioned, schema-driven binary record
// format used to encode and decode keys and values. A schema node is
// either a primitive, a map of named fields, or a one-element list whose
// sole child schema describes every element.
package codec

import (
	"sort"

	"github.com/dcsommer/vldmgo/errors"
)

// Kind discriminates the three schema node shapes.
type Kind int

const (
	KindPrimitive Kind = iota
	KindMap
	KindList
)

// Primitive type names recognised by the codec.
const (
	TypeString  = "string"
	TypeInt8    = "int8"
	TypeInt16   = "int16"
	TypeInt32   = "int32"
	TypeInt64   = "int64"
	TypeFloat32 = "float32"
	TypeFloat64 = "float64"
	TypeDate    = "date"
	TypeBytes   = "bytes"
	TypeBoolean = "boolean"
)

var validPrimitives = map[string]bool{
	TypeString: true, TypeInt8: true, TypeInt16: true, TypeInt32: true,
	TypeInt64: true, TypeFloat32: true, TypeFloat64: true, TypeDate: true,
	TypeBytes: true, TypeBoolean: true,
}

// Schema is a single node of a (possibly recursive) record schema.
type Schema struct {
	Kind Kind

	// Primitive holds one of the Type* constants when Kind == KindPrimitive.
	Primitive string

	// Fields holds the map's named children when Kind == KindMap. Order in
	// this slice is irrelevant to the wire format (fields are always
	// written/read in lexicographic order of name) but is preserved for
	// schema introspection.
	Fields []Field

	// Element is the sole child schema when Kind == KindList.
	Element *Schema
}

// Field is one named child of a map schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Prim builds a primitive schema node, validating the type name eagerly.
func Prim(name string) (*Schema, error) {
	if !validPrimitives[name] {
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "unrecognised primitive schema type %q", name)
	}
	return &Schema{Kind: KindPrimitive, Primitive: name}, nil
}

// Map builds a map schema node from an ordered set of fields. Fields may be
// given in any order; they are always written/read in lexicographic order
// of name at encode/decode time.
func Map(fields ...Field) *Schema {
	return &Schema{Kind: KindMap, Fields: fields}
}

// List builds a schema for a homogeneous list whose elements all conform to
// element.
func List(element *Schema) *Schema {
	return &Schema{Kind: KindList, Element: element}
}

// sortedFields returns Fields sorted by name, without mutating the schema.
func (s *Schema) sortedFields() []Field {
	out := make([]Field, len(s.Fields))
	copy(out, s.Fields)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// fieldNameSet returns the schema's field names as a set, used to validate
// that a caller-supplied map has exactly the schema's key set.
func (s *Schema) fieldNameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		set[f.Name] = struct{}{}
	}
	return set
}

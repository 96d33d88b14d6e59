package cluster

import (
	"strings"

	"github.com/dcsommer/vldmgo/codec"
	"github.com/dcsommer/vldmgo/errors"
)

// ParseSchemaText parses one JSON-style (or single-quoted) type descriptor
// from stores.xml's schema-info elements into a codec.Schema: a quoted
// primitive name ("string"), a one-element list (["int32"]), or a map of
// named fields ({"id":"int32","name":"string"}). Single-quoted literals are
// normalised to double quotes before parsing, since the store metadata
// tolerates both dialects interchangeably.
func ParseSchemaText(text string) (*codec.Schema, error) {
	p := &schemaTextParser{data: normalizeQuotes(text)}
	p.skipSpace()
	schema, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.data) {
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "trailing data after schema descriptor %q", text)
	}
	return schema, nil
}

// normalizeQuotes turns single-quoted string literals into double-quoted
// ones. The schema-info dialect never nests one quote style inside the
// other, so a straight character swap is sufficient.
func normalizeQuotes(text string) string {
	return strings.ReplaceAll(text, "'", "\"")
}

type schemaTextParser struct {
	data string
	pos  int
}

func (p *schemaTextParser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *schemaTextParser) parseValue() (*codec.Schema, error) {
	p.skipSpace()
	if p.pos >= len(p.data) {
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "unexpected end of schema descriptor")
	}
	switch p.data[p.pos] {
	case '"':
		name, err := p.parseQuotedString()
		if err != nil {
			return nil, err
		}
		return codec.Prim(name)
	case '[':
		return p.parseList()
	case '{':
		return p.parseMap()
	default:
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "unexpected character %q in schema descriptor", p.data[p.pos])
	}
}

func (p *schemaTextParser) parseList() (*codec.Schema, error) {
	p.pos++ // consume '['
	p.skipSpace()
	element, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != ']' {
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "list schema missing closing ]")
	}
	p.pos++
	return codec.List(element), nil
}

func (p *schemaTextParser) parseMap() (*codec.Schema, error) {
	p.pos++ // consume '{'
	p.skipSpace()
	var fields []codec.Field
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		return codec.Map(fields...), nil
	}
	for {
		p.skipSpace()
		name, err := p.parseQuotedString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			return nil, errors.NewClient(errors.CodeSchemaMismatch, "map field %q missing ':'", name)
		}
		p.pos++
		fieldSchema, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		fields = append(fields, codec.Field{Name: name, Schema: fieldSchema})

		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, errors.NewClient(errors.CodeSchemaMismatch, "map schema missing closing }")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return codec.Map(fields...), nil
		default:
			return nil, errors.NewClient(errors.CodeSchemaMismatch, "unexpected character %q in map schema", p.data[p.pos])
		}
	}
}

func (p *schemaTextParser) parseQuotedString() (string, error) {
	if p.pos >= len(p.data) || p.data[p.pos] != '"' {
		return "", errors.NewClient(errors.CodeSchemaMismatch, "expected a quoted string in schema descriptor")
	}
	start := p.pos + 1
	end := strings.IndexByte(p.data[start:], '"')
	if end < 0 {
		return "", errors.NewClient(errors.CodeSchemaMismatch, "unterminated quoted string in schema descriptor")
	}
	p.pos = start + end + 1
	return p.data[start : start+end], nil
}

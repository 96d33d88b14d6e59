package cluster

import (
	"testing"

	"github.com/dcsommer/vldmgo/codec"
)

func TestParseSchemaTextPrimitive(t *testing.T) {
	s, err := ParseSchemaText(`"string"`)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != codec.KindPrimitive || s.Primitive != codec.TypeString {
		t.Fatalf("got %+v", s)
	}
}

func TestParseSchemaTextList(t *testing.T) {
	s, err := ParseSchemaText(`["int32"]`)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != codec.KindList || s.Element.Primitive != codec.TypeInt32 {
		t.Fatalf("got %+v", s)
	}
}

func TestParseSchemaTextMap(t *testing.T) {
	s, err := ParseSchemaText(`{"id":"int32","name":"string"}`)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != codec.KindMap || len(s.Fields) != 2 {
		t.Fatalf("got %+v", s)
	}
	byName := map[string]*codec.Schema{}
	for _, f := range s.Fields {
		byName[f.Name] = f.Schema
	}
	if byName["id"].Primitive != codec.TypeInt32 || byName["name"].Primitive != codec.TypeString {
		t.Fatalf("got %+v", byName)
	}
}

func TestParseSchemaTextSingleQuoted(t *testing.T) {
	s, err := ParseSchemaText(`{'id':'int32'}`)
	if err != nil {
		t.Fatal(err)
	}
	if s.Fields[0].Name != "id" || s.Fields[0].Schema.Primitive != codec.TypeInt32 {
		t.Fatalf("got %+v", s)
	}
}

func TestParseSchemaTextNestedMapOfLists(t *testing.T) {
	s, err := ParseSchemaText(`{"tags":["string"],"scores":["float64"]}`)
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]*codec.Schema{}
	for _, f := range s.Fields {
		byName[f.Name] = f.Schema
	}
	if byName["tags"].Kind != codec.KindList || byName["tags"].Element.Primitive != codec.TypeString {
		t.Fatalf("got %+v", byName["tags"])
	}
	if byName["scores"].Element.Primitive != codec.TypeFloat64 {
		t.Fatalf("got %+v", byName["scores"])
	}
}

func TestParseSchemaTextRejectsUnrecognisedPrimitive(t *testing.T) {
	if _, err := ParseSchemaText(`"nonsense"`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseSchemaTextRejectsTrailingGarbage(t *testing.T) {
	if _, err := ParseSchemaText(`"string" garbage`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseSchemaTextRejectsUnterminatedList(t *testing.T) {
	if _, err := ParseSchemaText(`["int32"`); err == nil {
		t.Fatal("expected an error")
	}
}

package cluster

import (
	"testing"

	"github.com/dcsommer/vldmgo/codec"
)

const sampleStoresXML = `<stores>
  <store>
    <name>widgets</name>
    <persistence>read-only</persistence>
    <routing-strategy>consistent-routing</routing-strategy>
    <replication-factor>2</replication-factor>
    <key-serializer>
      <type>json</type>
      <schema-info version="0">"string"</schema-info>
    </key-serializer>
    <value-serializer>
      <type>json</type>
      <schema-info version="0">{"id":"int32","name":"string"}</schema-info>
      <schema-info version="1">{"id":"int32","name":"string","tags":["string"]}</schema-info>
      <compression>
        <type>gzip</type>
      </compression>
    </value-serializer>
  </store>
  <store>
    <name>legacy</name>
    <persistence>read-write</persistence>
    <routing-strategy>consistent-routing</routing-strategy>
    <replication-factor>1</replication-factor>
    <key-serializer><type>string</type></key-serializer>
    <value-serializer><type>string</type></value-serializer>
  </store>
</stores>`

func TestParseStoresXML(t *testing.T) {
	stores, err := ParseStoresXML([]byte(sampleStoresXML))
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 2 {
		t.Fatalf("got %d stores", len(stores))
	}

	widgets := stores[0]
	if widgets.Name != "widgets" || !widgets.IsReadOnly() {
		t.Fatalf("got %+v", widgets)
	}
	if widgets.ReplicationFactor != 2 {
		t.Fatalf("replication factor = %d", widgets.ReplicationFactor)
	}
	if widgets.KeySerializer.HasVersionTag {
		t.Fatal("single schema-info version should not carry a version tag")
	}
	if !widgets.ValueSerializer.HasVersionTag {
		t.Fatal("two schema-info versions should carry a version tag")
	}
	if widgets.ValueSerializer.Compression != "gzip" {
		t.Fatalf("compression = %q", widgets.ValueSerializer.Compression)
	}

	keySchema, err := widgets.BuildKeySchema()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := keySchema.DecodeVersioned([]byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'})
	if err != nil {
		t.Fatal(err)
	}
	if decoded != "hello" {
		t.Fatalf("decoded = %v", decoded)
	}

	valueSchema, err := widgets.BuildValueSchema()
	if err != nil {
		t.Fatal(err)
	}
	if len(valueSchema.Versions) != 2 {
		t.Fatalf("got %d value schema versions", len(valueSchema.Versions))
	}

	comp, err := widgets.ValueCompressor()
	if err != nil {
		t.Fatal(err)
	}
	if comp.Name() != "gzip" {
		t.Fatalf("compressor = %q", comp.Name())
	}

	legacy := stores[1]
	if legacy.IsReadOnly() {
		t.Fatal("legacy store should not be read-only")
	}
	legacySchema, err := legacy.BuildKeySchema()
	if err != nil {
		t.Fatal(err)
	}
	if legacySchema.HasVersionTag {
		t.Fatal("non-json serializer should be untagged")
	}
	if _, ok := legacySchema.Versions[0]; !ok || legacySchema.Versions[0].Primitive != codec.TypeBytes {
		t.Fatalf("got %+v", legacySchema.Versions)
	}
}

func TestParseStoresXMLRejectsEmptyDocument(t *testing.T) {
	if _, err := ParseStoresXML([]byte(`<stores></stores>`)); err == nil {
		t.Fatal("expected an error")
	}
}

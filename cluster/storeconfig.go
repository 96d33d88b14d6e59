package cluster

import (
	"encoding/xml"

	"github.com/dcsommer/vldmgo/codec"
	"github.com/dcsommer/vldmgo/compressor"
	"github.com/dcsommer/vldmgo/errors"
)

// SerializerSpec is one store's key or value serializer as declared in
// stores.xml: a serializer type name, its schema-info versions (only
// meaningful when Type == "json"), and an optional compression strategy.
type SerializerSpec struct {
	Type          string
	Schemas       map[int]string
	HasVersionTag bool
	Compression   string
}

// StoreConfig is one store's stores.xml entry.
type StoreConfig struct {
	Name              string
	Persistence       string
	RoutingStrategy   string
	ReplicationFactor int
	KeySerializer     SerializerSpec
	ValueSerializer   SerializerSpec
}

// IsReadOnly reports whether this store's persistence type is the
// read-only engine this client is built to talk to.
func (s *StoreConfig) IsReadOnly() bool {
	return s.Persistence == "read-only"
}

// BuildKeySchema builds the versioned schema for this store's keys.
func (s *StoreConfig) BuildKeySchema() (*codec.VersionedSchema, error) {
	return buildVersionedSchema(s.KeySerializer)
}

// BuildValueSchema builds the versioned schema for this store's values.
func (s *StoreConfig) BuildValueSchema() (*codec.VersionedSchema, error) {
	return buildVersionedSchema(s.ValueSerializer)
}

// KeyCompressor and ValueCompressor resolve a serializer's declared
// compression strategy to a compressor.Compressor, defaulting to identity.
func (s *StoreConfig) KeyCompressor() (compressor.Compressor, error) {
	return resolveCompressor(s.KeySerializer.Compression)
}

func (s *StoreConfig) ValueCompressor() (compressor.Compressor, error) {
	return resolveCompressor(s.ValueSerializer.Compression)
}

// resolveCompressor maps a store config's compression/type text to a
// compressor.Compressor, tolerating the "no"/"identity" synonyms for "no
// compression" that appear across real stores.xml documents.
func resolveCompressor(name string) (compressor.Compressor, error) {
	switch name {
	case "no", "identity":
		name = "none"
	}
	return compressor.New(name)
}

// buildVersionedSchema parses a serializer's schema-info text into a
// codec.VersionedSchema. A non-"json" serializer (e.g. "string", "identity")
// is treated as an untagged, single-version raw-bytes passthrough schema,
// since this client never needs to interpret those bytes beyond framing.
func buildVersionedSchema(spec SerializerSpec) (*codec.VersionedSchema, error) {
	if spec.Type != "json" {
		raw, err := codec.Prim(codec.TypeBytes)
		if err != nil {
			return nil, err
		}
		return codec.NewVersioned(false, map[int]*codec.Schema{0: raw})
	}

	versions := make(map[int]*codec.Schema, len(spec.Schemas))
	for version, text := range spec.Schemas {
		schema, err := ParseSchemaText(text)
		if err != nil {
			return nil, errors.WrapServer(errors.CodeBootstrapFailed, err, "schema version %d is invalid", version)
		}
		versions[version] = schema
	}
	return codec.NewVersioned(spec.HasVersionTag, versions)
}

type storesXML struct {
	XMLName xml.Name   `xml:"stores"`
	Stores  []storeXML `xml:"store"`
}

type storeXML struct {
	Name              string        `xml:"name"`
	Persistence       string        `xml:"persistence"`
	RoutingStrategy   string        `xml:"routing-strategy"`
	ReplicationFactor int           `xml:"replication-factor"`
	KeySerializer     serializerXML `xml:"key-serializer"`
	ValueSerializer   serializerXML `xml:"value-serializer"`
}

type serializerXML struct {
	Type        string          `xml:"type"`
	SchemaInfos []schemaInfoXML `xml:"schema-info"`
	Compression *compressionXML `xml:"compression"`
}

type schemaInfoXML struct {
	Version int    `xml:"version,attr"`
	Text    string `xml:",chardata"`
}

type compressionXML struct {
	Type string `xml:"type"`
}

// ParseStoresXML parses stores.xml into one StoreConfig per declared store.
func ParseStoresXML(data []byte) ([]*StoreConfig, error) {
	var doc storesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapServer(errors.CodeBootstrapFailed, err, "stores.xml is not well-formed")
	}
	if len(doc.Stores) == 0 {
		return nil, errors.NewServer(errors.CodeBootstrapFailed, "stores.xml declares no stores")
	}

	out := make([]*StoreConfig, 0, len(doc.Stores))
	for _, s := range doc.Stores {
		keySpec, err := buildSerializerSpec(s.KeySerializer)
		if err != nil {
			return nil, errors.WrapServer(errors.CodeBootstrapFailed, err, "store %q has an invalid key-serializer", s.Name)
		}
		valueSpec, err := buildSerializerSpec(s.ValueSerializer)
		if err != nil {
			return nil, errors.WrapServer(errors.CodeBootstrapFailed, err, "store %q has an invalid value-serializer", s.Name)
		}
		out = append(out, &StoreConfig{
			Name:              s.Name,
			Persistence:       s.Persistence,
			RoutingStrategy:   s.RoutingStrategy,
			ReplicationFactor: s.ReplicationFactor,
			KeySerializer:     keySpec,
			ValueSerializer:   valueSpec,
		})
	}
	return out, nil
}

// buildSerializerSpec derives HasVersionTag from whether more than one
// schema-info version is declared: a single, version-less (or version-0)
// schema means the store never prefixes a version byte.
func buildSerializerSpec(x serializerXML) (SerializerSpec, error) {
	schemas := make(map[int]string, len(x.SchemaInfos))
	for _, info := range x.SchemaInfos {
		if _, dup := schemas[info.Version]; dup {
			return SerializerSpec{}, errors.NewServer(errors.CodeBootstrapFailed, "duplicate schema-info version %d", info.Version)
		}
		schemas[info.Version] = info.Text
	}

	spec := SerializerSpec{Type: x.Type, Schemas: schemas, HasVersionTag: len(schemas) > 1}
	if x.Compression != nil {
		spec.Compression = x.Compression.Type
	}
	return spec, nil
}

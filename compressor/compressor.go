// Package compressor implements the gzip/identity transcoding used to
// wrap encoded keys and values before they cross the wire, per store
// configuration. It operates on opaque byte strings; no streaming API is
// required by the spec this client implements.
package compressor

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/dcsommer/vldmgo/errors"
)

// Compressor transcodes a byte string in both directions.
type Compressor interface {
	// Name returns the configuration string this compressor was built from
	// ("none" or "gzip").
	Name() string
	// Encode compresses data (identity for the no-op compressor).
	Encode(data []byte) ([]byte, error)
	// Decode decompresses data (identity for the no-op compressor).
	Decode(data []byte) ([]byte, error)
}

type identityCompressor struct{}

func (identityCompressor) Name() string                    { return "none" }
func (identityCompressor) Encode(data []byte) ([]byte, error) { return data, nil }
func (identityCompressor) Decode(data []byte) ([]byte, error) { return data, nil }

type gzipCompressor struct{}

func (gzipCompressor) Name() string { return "gzip" }

func (gzipCompressor) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, err, "gzip encode failed")
	}
	if err := w.Close(); err != nil {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, err, "gzip encode close failed")
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, err, "gzip decode failed to open stream")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, err, "gzip decode failed")
	}
	return out, nil
}

// Identity is the shared no-op compressor instance.
var Identity Compressor = identityCompressor{}

// Gzip is the shared gzip compressor instance.
var Gzip Compressor = gzipCompressor{}

// New builds a Compressor from a store configuration's compressor type
// string. Only "none" (or empty) and "gzip" are supported; anything else is
// rejected at configuration time per spec.
func New(kind string) (Compressor, error) {
	switch kind {
	case "", "none":
		return Identity, nil
	case "gzip":
		return Gzip, nil
	default:
		return nil, errors.NewClient(errors.CodeSchemaMismatch, "unsupported compressor type %q", kind)
	}
}

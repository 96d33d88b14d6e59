package codec

import (
	"encoding/binary"

	"github.com/dcsommer/vldmgo/errors"
)

const (
	shortLengthLimit = (1 << 15) - 1 // 32767
	longLengthLimit  = 0x3FFFFFFF
	nullLengthMarker = 0xFFFF
	longLengthFlag   = uint32(0xC0000000)
)

// writeLength appends the length prefix used by strings, bytes and lists. A
// length below 2^15-1 is a plain unsigned 16-bit big-endian value; a length
// below 0x3FFFFFFF is a 32-bit big-endian value with its top two bits set
// as a long-length marker; anything larger is rejected.
func writeLength(w *writer, length int) error {
	switch {
	case length < shortLengthLimit:
		w.writeUint16(uint16(length))
	case length < longLengthLimit:
		w.writeUint32(uint32(length) | longLengthFlag)
	default:
		return errors.NewClient(errors.CodeValueOutOfRange, "length %d exceeds the maximum encodable length", length)
	}
	return nil
}

// writeNullLength appends the NULL-length marker (0xFFFF), used for NULL
// strings, NULL bytes and NULL lists.
func writeNullLength(w *writer) {
	w.writeUint16(nullLengthMarker)
}

// readLength reads a length prefix written by writeLength/writeNullLength.
// It returns (-1, nil) for the NULL marker. The peeked 16-bit value's
// meaning: 0xFFFF is NULL; if its top bit is set, it is the high half of a
// 32-bit long-length word whose top two marker bits must be cleared; any
// other value is the plain 16-bit length.
func readLength(r *reader) (int, error) {
	peek, err := r.peekUint16()
	if err != nil {
		return 0, err
	}
	if peek == nullLengthMarker {
		r.skip(2)
		return -1, nil
	}
	if peek&0x8000 != 0 {
		full, err := r.readUint32()
		if err != nil {
			return 0, err
		}
		return int(full &^ longLengthFlag), nil
	}
	r.skip(2)
	return int(peek), nil
}

// --------------------------------------------------------------------------
// writer / reader: small position-tracked byte-buffer helpers used by the
// whole codec package, mirroring the manual pos-index style used elsewhere
// in this client's binary framing code.
// --------------------------------------------------------------------------

type writer struct {
	buf []byte
}

func (w *writer) writeByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) writeBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) writeUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *writer) writeUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *writer) writeInt32(v int32) {
	w.writeUint32(uint32(v))
}

func (w *writer) writeUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) skip(n int) {
	r.pos += n
}

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "unexpected end of record while reading a byte")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) peekUint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "unexpected end of record while peeking a length prefix")
	}
	return binary.BigEndian.Uint16(r.data[r.pos : r.pos+2]), nil
}

func (r *reader) readUint16() (uint16, error) {
	v, err := r.peekUint16()
	if err != nil {
		return 0, err
	}
	r.pos += 2
	return v, nil
}

func (r *reader) readUint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "unexpected end of record while reading a 32-bit field")
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *reader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *reader) readUint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, errors.WrapServer(errors.CodeResponseParseFailure, nil, "unexpected end of record while reading a 64-bit field")
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errors.WrapServer(errors.CodeResponseParseFailure, nil, "unexpected end of record while reading %d bytes", n)
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

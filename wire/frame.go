// Package wire implements the client's two hand-rolled protocol-buffer-style
// message shapes (Request, GetResponse) and the length-prefix framing that
// carries them over a Connection. Message bodies are built and parsed with
// the low-level varint/tag primitives from protowire rather than generated
// code, since the two shapes are small and fixed.
package wire

import (
	"encoding/binary"

	"github.com/dcsommer/vldmgo/errors"
)

// FrameHeaderLen is the number of bytes in the length prefix that precedes
// every request and response body.
const FrameHeaderLen = 4

// AppendFrame prepends body with its big-endian uint32 length prefix.
func AppendFrame(body []byte) []byte {
	out := make([]byte, FrameHeaderLen+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body)))
	copy(out[FrameHeaderLen:], body)
	return out
}

// TryReadFrame inspects buf for one complete length-prefixed frame. It
// returns the frame body, the number of bytes of buf consumed, and ok=false
// if buf does not yet contain a full frame (the caller should wait for more
// data before calling again).
func TryReadFrame(buf []byte) (body []byte, consumed int, ok bool, err error) {
	if len(buf) < FrameHeaderLen {
		return nil, 0, false, nil
	}
	length := binary.BigEndian.Uint32(buf)
	total := FrameHeaderLen + int(length)
	if total < FrameHeaderLen {
		return nil, 0, false, errors.WrapServer(errors.CodeResponseParseFailure, nil, "frame length %d overflows int", length)
	}
	if len(buf) < total {
		return nil, 0, false, nil
	}
	out := make([]byte, length)
	copy(out, buf[FrameHeaderLen:total])
	return out, total, true, nil
}

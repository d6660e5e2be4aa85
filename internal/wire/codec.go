// Package wire implements the ingestion framing protocol: a 4-byte
// big-endian length prefix followed by a serialized payload describing
// one log event. Payloads are JSON by default; clients can switch the
// serialization mid-stream with a control frame.
package wire

import "github.com/telhawk-systems/hawktail/pkg/model"

// FormatJSON and FormatCBOR name the supported payload serializations.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// ControlPrefix marks a frame payload as an in-band control command
// rather than a log event. The remainder of the payload is a UTF-8
// "key=value" command, e.g. "!!hawktail!!format=cbor".
const ControlPrefix = "!!hawktail!!"

// PayloadCodec deserializes one frame payload into an unsequenced
// record, and serializes event field maps for the client side.
type PayloadCodec interface {
	// Name is the format name used in control frames.
	Name() string

	// Decode parses a payload into a Record. The record has no
	// sequence, and its source connection ID is unset; the session
	// fills those in.
	Decode(payload []byte) (*model.Record, error)

	// Encode serializes an event field map into a payload. Used by
	// the seeder and by tests.
	Encode(fields map[string]any) ([]byte, error)
}

// CodecByName returns the codec for a format name.
func CodecByName(name string) (PayloadCodec, bool) {
	switch name {
	case FormatJSON:
		return jsonCodec{}, true
	case FormatCBOR:
		return cborCodec{}, true
	default:
		return nil, false
	}
}

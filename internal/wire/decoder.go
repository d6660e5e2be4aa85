package wire

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"strings"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// lengthPrefixSize is the fixed width of the frame length prefix:
// a 4-byte unsigned big-endian integer.
const lengthPrefixSize = 4

// DefaultMaxFrameSize bounds frame payloads when no explicit limit is
// configured.
const DefaultMaxFrameSize = 1 << 20

// Decoder incrementally decodes framed records from a byte stream. It
// is resumable: bytes arrive in arbitrary chunks via Feed, and Next
// returns ErrNeedMore until a full frame is buffered. A Decoder is
// owned by a single connection session and is not safe for concurrent
// use.
type Decoder struct {
	buf    bytes.Buffer
	max    uint32
	codec  PayloadCodec
	logger *slog.Logger
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxFrameSize overrides the maximum accepted payload length.
func WithMaxFrameSize(max int) DecoderOption {
	return func(d *Decoder) {
		if max > 0 {
			d.max = uint32(max)
		}
	}
}

// WithFormat sets the initial payload serialization format.
func WithFormat(name string) DecoderOption {
	return func(d *Decoder) {
		if c, ok := CodecByName(name); ok {
			d.codec = c
		}
	}
}

// WithLogger sets the logger used for control-frame diagnostics.
func WithLogger(logger *slog.Logger) DecoderOption {
	return func(d *Decoder) { d.logger = logger }
}

// NewDecoder creates a Decoder with JSON payloads and the default
// frame size limit.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		max:    DefaultMaxFrameSize,
		codec:  jsonCodec{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Format returns the name of the current payload serialization.
func (d *Decoder) Format() string { return d.codec.Name() }

// Buffered returns the number of bytes fed but not yet consumed.
func (d *Decoder) Buffered() int { return d.buf.Len() }

// Feed appends a chunk of stream bytes to the decode buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf.Write(p)
}

// Next decodes the next record from the buffered bytes.
//
// It returns ErrNeedMore when the buffer holds less than one complete
// frame, leaving the partial frame buffered. It returns a *FrameError
// when the frame declares a length above the configured maximum or the
// payload fails to deserialize; frame errors are session-fatal and the
// caller must stop decoding. Zero-length frames and control frames are
// consumed internally and never surface as records.
func (d *Decoder) Next() (*model.Record, error) {
	for {
		data := d.buf.Bytes()
		if len(data) < lengthPrefixSize {
			return nil, ErrNeedMore
		}
		length := binary.BigEndian.Uint32(data[:lengthPrefixSize])
		if length > d.max {
			return nil, frameErrorf(nil, "declared length %d exceeds maximum %d", length, d.max)
		}
		if length == 0 {
			// Keep-alive no-op frame.
			d.buf.Next(lengthPrefixSize)
			continue
		}
		if uint32(len(data)-lengthPrefixSize) < length {
			return nil, ErrNeedMore
		}

		payload := make([]byte, length)
		copy(payload, data[lengthPrefixSize:lengthPrefixSize+int(length)])
		d.buf.Next(lengthPrefixSize + int(length))

		if bytes.HasPrefix(payload, []byte(ControlPrefix)) {
			d.handleControl(payload[len(ControlPrefix):])
			continue
		}

		return d.codec.Decode(payload)
	}
}

// handleControl processes an in-band control command. Unknown commands
// and unsupported formats are logged and ignored; a client mistake in a
// control frame is not worth killing the stream over.
func (d *Decoder) handleControl(body []byte) {
	cmd, value, ok := strings.Cut(string(body), "=")
	if !ok {
		d.logger.Error("malformed control frame", slog.String("body", string(body)))
		return
	}
	switch cmd {
	case "format":
		codec, ok := CodecByName(value)
		if !ok {
			d.logger.Error("unsupported serialization format", slog.String("format", value))
			return
		}
		d.logger.Debug("switching serialization format", slog.String("format", value))
		d.codec = codec
	default:
		d.logger.Error("unknown control command", slog.String("command", cmd))
	}
}

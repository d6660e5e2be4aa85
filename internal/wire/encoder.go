package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteFrame writes one length-prefixed frame to w: a 4-byte unsigned
// big-endian payload length followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write frame prefix: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}

// WriteEvent serializes an event field map with the codec and writes it
// as one frame.
func WriteEvent(w io.Writer, codec PayloadCodec, fields map[string]any) error {
	payload, err := codec.Encode(fields)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// WriteControl writes a control frame carrying a "key=value" command.
func WriteControl(w io.Writer, command, value string) error {
	return WriteFrame(w, []byte(ControlPrefix+command+"="+value))
}

package wire

import (
	"errors"
	"fmt"
)

// ErrNeedMore is returned by Decoder.Next when the buffered bytes do
// not yet contain a complete frame. The already-read prefix is
// retained; feed more bytes and call Next again.
var ErrNeedMore = errors.New("wire: need more data")

// FrameError reports a malformed or oversized frame. It is fatal for
// the session that produced it and harmless for everything else.
type FrameError struct {
	Reason string
	Err    error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("frame error: %s", e.Reason)
}

func (e *FrameError) Unwrap() error { return e.Err }

func frameErrorf(err error, format string, args ...any) *FrameError {
	return &FrameError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// IsFrameError reports whether err is (or wraps) a FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

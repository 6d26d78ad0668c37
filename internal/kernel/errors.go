package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionInit means the native kernel could not be created. There is
	// nothing to clean up.
	ErrSessionInit = errors.New("kernel: failed to create native kernel")

	// ErrUseAfterDispose is a programming error in the calling layer.
	ErrUseAfterDispose = errors.New("kernel: session used after dispose")
)

// NativeCallError reports a non-zero status from a native call. Code is the
// kernel's value, unchanged.
type NativeCallError struct {
	Op   string
	Code int32
}

func (e *NativeCallError) Error() string {
	return fmt.Sprintf("kernel: %s failed with code %d (%s)", e.Op, e.Code, CodeName(e.Code))
}

// CodeOf returns the native status carried by err, if any.
func CodeOf(err error) (int32, bool) {
	var nce *NativeCallError
	if errors.As(err, &nce) {
		return nce.Code, true
	}
	return 0, false
}

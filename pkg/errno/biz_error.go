package errno

import (
	"errors"
	"fmt"
)

// BizError pairs a stable error code with the underlying cause.
type BizError struct {
	Errno *Errno
	Cause error
}

// NewBizError wraps cause under the given code. A nil code maps to ErrUnknown.
func NewBizError(e *Errno, cause error) *BizError {
	if e == nil {
		e = ErrUnknown
	}
	return &BizError{Errno: e, Cause: cause}
}

func (b *BizError) Error() string {
	if b.Cause == nil {
		return b.Errno.Message
	}
	return fmt.Sprintf("%s: %v", b.Errno.Message, b.Cause)
}

func (b *BizError) Unwrap() error {
	return b.Cause
}

// Is lets errors.Is match both the BizError and its Errno sentinel.
func (b *BizError) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return b.Errno == t
	}
	return false
}

// DecodeErr extracts code and message for transport layers. Unrecognized
// errors are reported as ErrUnknown with the original message attached.
func DecodeErr(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}
	var be *BizError
	if errors.As(err, &be) {
		if be.Cause != nil {
			return be.Errno.Code, fmt.Sprintf("%s: %v", be.Errno.Message, be.Cause)
		}
		return be.Errno.Code, be.Errno.Message
	}
	var en *Errno
	if errors.As(err, &en) {
		return en.Code, en.Message
	}
	return ErrUnknown.Code, err.Error()
}

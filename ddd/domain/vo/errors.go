package vo

import (
	"errors"
	"fmt"
)

// FetchErrorKind classification of a source fetch failure
type FetchErrorKind string

const (
	// FetchUnreachable the source exists but could not be retrieved
	FetchUnreachable FetchErrorKind = "unreachable"
	// FetchUnsupported the URL scheme or site is not handled
	FetchUnsupported FetchErrorKind = "unsupported"
	// FetchCorrupt the downloaded file is empty or not a parsable container
	FetchCorrupt FetchErrorKind = "corrupt"
)

// FetchError source acquisition failure
type FetchError struct {
	Kind  FetchErrorKind
	URL   string
	Cause error
}

func NewFetchError(kind FetchErrorKind, url string, cause error) *FetchError {
	return &FetchError{Kind: kind, URL: url, Cause: cause}
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Kind, e.URL, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.Kind, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// IsFetchError reports whether err wraps a FetchError of the given kind
func IsFetchError(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// SelectionError segment selection failure
type SelectionError struct {
	Reason string
	Cause  error
}

// ErrInsufficientSignal asset shorter than the minimum clip bound
var ErrInsufficientSignal = &SelectionError{Reason: "insufficient signal: asset shorter than minimum clip duration"}

func NewSelectionError(reason string, cause error) *SelectionError {
	return &SelectionError{Reason: reason, Cause: cause}
}

func (e *SelectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("selection failed: %s: %v", e.Reason, e.Cause)
	}
	return "selection failed: " + e.Reason
}

func (e *SelectionError) Unwrap() error { return e.Cause }

// Is treats any two SelectionErrors with the same reason as equal so the
// ErrInsufficientSignal sentinel works through errors.Is.
func (e *SelectionError) Is(target error) bool {
	var se *SelectionError
	if !errors.As(target, &se) {
		return false
	}
	return e.Reason == se.Reason
}

// RenderErrorKind classification of a clip render failure
type RenderErrorKind string

const (
	// RenderEncodeFailure encoder exited nonzero or produced no output
	RenderEncodeFailure RenderErrorKind = "encode_failure"
	// RenderUnsupportedAspect requested aspect mode is not renderable
	RenderUnsupportedAspect RenderErrorKind = "unsupported_aspect"
	// RenderTimeout encode exceeded the configured deadline
	RenderTimeout RenderErrorKind = "timeout"
)

// RenderError clip encode failure
type RenderError struct {
	Kind  RenderErrorKind
	Cause error
}

func NewRenderError(kind RenderErrorKind, cause error) *RenderError {
	return &RenderError{Kind: kind, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render %s: %v", e.Kind, e.Cause)
	}
	return "render " + string(e.Kind)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// IsRenderError reports whether err wraps a RenderError of the given kind
func IsRenderError(err error, kind RenderErrorKind) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Kind == kind
}

// PublishError platform dispatch failure carrying the retry decision
type PublishError struct {
	Retryable  bool
	Platform   string
	StatusCode int
	Cause      error
}

func NewPublishError(retryable bool, platform string, statusCode int, cause error) *PublishError {
	return &PublishError{Retryable: retryable, Platform: platform, StatusCode: statusCode, Cause: cause}
}

func (e *PublishError) Error() string {
	kind := "permanent"
	if e.Retryable {
		kind = "retryable"
	}
	if e.Cause != nil {
		return fmt.Sprintf("publish %s failure on %s (status=%d): %v", kind, e.Platform, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("publish %s failure on %s (status=%d)", kind, e.Platform, e.StatusCode)
}

func (e *PublishError) Unwrap() error { return e.Cause }

// IsRetryablePublishError reports whether err allows another publish attempt.
// Unknown errors default to retryable so transient faults are not dropped.
func IsRetryablePublishError(err error) bool {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return true
}

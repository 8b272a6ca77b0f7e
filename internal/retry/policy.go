// Package retry classifies transfer failures as retryable or fatal and
// computes the capped exponential delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"
)

const (
	DefaultBase    = 200 * time.Millisecond
	MaxDelay       = 2000 * time.Millisecond
	DefaultRetries = 4
)

type Kind int

const (
	InvalidInput Kind = iota
	TransientTransport
	ServerError
	ClientError
	LocalIO
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case TransientTransport:
		return "transient transport"
	case ServerError:
		return "server error"
	case ClientError:
		return "client error"
	case LocalIO:
		return "local io"
	}
	return "unknown"
}

// Error tags an underlying failure with its taxonomy kind. Error() passes the
// original message through untouched so callers see the root cause, not a
// generic wrapper.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind. An already-tagged error keeps its original kind.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the taxonomy kind of a tagged error, or ok=false when the
// error carries no tag.
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// StatusError is an HTTP response with a status the transfer contract does
// not accept.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// transientMarkers is the last-resort textual classifier: substrings in a
// lower-cased failure message that indicate transience when the error's
// structured kind is not inspectable. Inherently fragile, so it runs only
// after every structured check has had its say.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"reset",
	"aborted",
	"broken pipe",
	"connection",
}

// Retryable reports whether another attempt is worth making for err.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if kind, ok := KindOf(err); ok {
		switch kind {
		case InvalidInput, ClientError:
			return false
		case TransientTransport, ServerError:
			return true
		}
		// LocalIO falls through to the structured and textual checks
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 && statusErr.Code <= 599
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrShortWrite) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return textuallyTransient(err)
}

func textuallyTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Delay computes the backoff before the attempt after the given 1-based
// failed attempt: base doubled per attempt, capped at MaxDelay.
func Delay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultBase
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base << uint(attempt-1)
	if delay > MaxDelay || delay <= 0 {
		delay = MaxDelay
	}
	return delay
}

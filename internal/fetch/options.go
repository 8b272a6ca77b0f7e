package fetch

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/harvix/fetchkit/internal/retry"
	"github.com/harvix/fetchkit/internal/utils"
)

// Options configures a single download. The zero value is usable; see
// DefaultOptions for the documented defaults.
type Options struct {
	// Resume continues an existing partial artifact via a Range request.
	Resume bool

	// Overwrite deletes an existing destination file instead of returning
	// its size untouched.
	Overwrite bool

	// Headers are merged into every request.
	Headers map[string]string

	// Timeout bounds each attempt, including body streaming. Nil means no
	// per-attempt bound; a non-nil value must be positive.
	Timeout *time.Duration

	// MaxDuration bounds the whole call across attempts and backoff waits.
	// Nil means unbounded; a non-nil value must be positive.
	MaxDuration *time.Duration

	// Retries is the number of additional attempts after the first.
	Retries int

	// Backoff is the base delay, doubled per failed attempt up to the
	// policy cap. Zero or negative selects the default.
	Backoff time.Duration

	// Client issues the HTTP requests. Defaults to the tuned client from
	// internal/utils.
	Client utils.Doer

	// Logger receives attempt and warning notices. Defaults to a no-op
	// logger; it never affects control flow.
	Logger *zerolog.Logger
}

// DefaultOptions returns the documented defaults: resume on, overwrite off,
// 4 retries, 200ms base backoff.
func DefaultOptions() Options {
	return Options{
		Resume:  true,
		Retries: retry.DefaultRetries,
		Backoff: retry.DefaultBase,
	}
}

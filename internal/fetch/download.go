// Package fetch implements the resumable, retrying HTTP transfer: one
// destination file per call, byte-range resume of the on-disk partial
// artifact, capped exponential backoff between attempts, and throttled
// progress callbacks.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/harvix/fetchkit/internal/partial"
	"github.com/harvix/fetchkit/internal/progress"
	"github.com/harvix/fetchkit/internal/retry"
	"github.com/harvix/fetchkit/internal/utils"
)

// Download transfers url to dest and returns the final size of the
// destination file. A failed call leaves the partial artifact on disk so an
// identical later call can resume instead of restarting. Concurrent calls for
// the same destination are serialized within the process.
func Download(ctx context.Context, url, dest string, onProgress progress.Func, opts Options) (int64, error) {
	if err := validate(url, dest, opts); err != nil {
		return 0, err
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	client := opts.Client
	if client == nil {
		client = utils.NewHTTPClient(utils.HTTPClientConfig{})
	}

	release := partial.Acquire(dest)
	defer release()

	if opts.MaxDuration != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *opts.MaxDuration)
		defer cancel()
	}

	// PREPARE_TARGET
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, retry.Wrap(retry.LocalIO, fmt.Errorf("error creating output directory: %v", err))
		}
	}
	if info, err := os.Stat(dest); err == nil {
		if !opts.Overwrite {
			log.Debug().Str("dest", dest).Int64("size", info.Size()).Msg("Destination already exists, skipping download")
			return info.Size(), nil
		}
		if err := os.Remove(dest); err != nil {
			return 0, retry.Wrap(retry.LocalIO, fmt.Errorf("error removing existing destination: %v", err))
		}
	}
	pf := partial.For(dest)
	if err := pf.Create(); err != nil {
		return 0, retry.Wrap(retry.LocalIO, err)
	}

	t := &transfer{
		url:        url,
		dest:       dest,
		pf:         pf,
		client:     client,
		onProgress: onProgress,
		opts:       opts,
		log:        log,
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Retries+1; attempt++ {
		// a caller-supplied deadline gates attempt entry, not only errors
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		log.Debug().Int("attempt", attempt).Str("url", url).Msg("Starting download attempt")
		size, err := t.run(ctx)
		if err == nil {
			log.Debug().Int("attempt", attempt).Int64("size", size).Msg("Download completed")
			return size, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("Download attempt failed")
		if attempt > opts.Retries || !retry.Retryable(err) {
			break
		}
		delay := retry.Delay(opts.Backoff, attempt)
		log.Debug().Dur("delay", delay).Int("attempt", attempt).Msg("Backing off before retry")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	// the partial artifact stays on disk for a later resume
	return 0, lastErr
}

func validate(url, dest string, opts Options) error {
	if url == "" {
		return retry.Wrap(retry.InvalidInput, errors.New("url must not be empty"))
	}
	if dest == "" {
		return retry.Wrap(retry.InvalidInput, errors.New("destination must not be empty"))
	}
	if opts.Timeout != nil && *opts.Timeout <= 0 {
		return retry.Wrap(retry.InvalidInput, errors.New("timeout must be positive"))
	}
	if opts.MaxDuration != nil && *opts.MaxDuration <= 0 {
		return retry.Wrap(retry.InvalidInput, errors.New("max duration must be positive"))
	}
	if opts.Retries < 0 {
		return retry.Wrap(retry.InvalidInput, errors.New("retries must not be negative"))
	}
	return nil
}

type transfer struct {
	url        string
	dest       string
	pf         *partial.File
	client     utils.Doer
	onProgress progress.Func
	opts       Options
	log        zerolog.Logger
}

// run executes one REQUEST -> STREAM -> FINALIZE attempt. The partial file
// handle is closed on every exit path.
func (t *transfer) run(ctx context.Context) (int64, error) {
	defer t.pf.Close()

	existing, err := t.pf.Size()
	if err != nil {
		return 0, retry.Wrap(retry.LocalIO, err)
	}
	ranged := t.opts.Resume && existing > 0

	if t.opts.Timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *t.opts.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return 0, retry.Wrap(retry.InvalidInput, fmt.Errorf("error creating GET request: %v", err))
	}
	for k, v := range t.opts.Headers {
		req.Header.Set(k, v)
	}
	if ranged {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existing))
		t.log.Debug().Int64("offset", existing).Msg("Requesting byte range for resume")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// transport failures flow through unwrapped so callers reach the
		// root cause; the retry policy classifies them structurally
		return 0, err
	}
	defer resp.Body.Close()

	declared := int64(-1)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if v, perr := strconv.ParseInt(cl, 10, 64); perr == nil {
			declared = v
		}
	}

	total := progress.UnknownTotal
	switch {
	case ranged && resp.StatusCode == http.StatusPartialContent:
		if err := t.pf.OpenAppend(); err != nil {
			return 0, retry.Wrap(retry.LocalIO, err)
		}
		if declared >= 0 {
			total = existing + declared
		}
	case ranged && resp.StatusCode == http.StatusOK:
		t.log.Warn().Int64("discarded", existing).Msg("Server ignored Range request, restarting from the beginning")
		existing = 0
		if err := t.pf.OpenTruncate(); err != nil {
			return 0, retry.Wrap(retry.LocalIO, err)
		}
		if declared >= 0 {
			total = declared
		}
	case !ranged && resp.StatusCode == http.StatusOK:
		if err := t.pf.OpenTruncate(); err != nil {
			return 0, retry.Wrap(retry.LocalIO, err)
		}
		if declared >= 0 {
			total = declared
		}
	default:
		statusErr := &retry.StatusError{Code: resp.StatusCode}
		if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
			return 0, retry.Wrap(retry.ServerError, statusErr)
		}
		return 0, retry.Wrap(retry.ClientError, statusErr)
	}

	// STREAM
	reporter := progress.NewReporter(progress.Options{
		Callback: t.onProgress,
		Total:    total,
		Start:    existing,
	})
	buf := make([]byte, utils.DefaultBufferSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if werr := t.pf.Write(buf[:n]); werr != nil {
				return 0, retry.Wrap(retry.LocalIO, werr)
			}
			reporter.Add(n)
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			return 0, rerr
		}
	}
	reporter.Finish()
	if err := t.pf.Sync(); err != nil {
		return 0, retry.Wrap(retry.LocalIO, err)
	}
	if err := t.pf.Close(); err != nil {
		return 0, retry.Wrap(retry.LocalIO, err)
	}

	// FINALIZE
	if total != progress.UnknownTotal && reporter.Written() != total {
		// servers sometimes close early while still reporting success
		t.log.Warn().Int64("written", reporter.Written()).Int64("declared", total).Msg("Downloaded size differs from declared total")
	}
	if err := t.pf.Promote(); err != nil {
		return 0, retry.Wrap(retry.LocalIO, err)
	}
	info, err := os.Stat(t.dest)
	if err != nil {
		return 0, retry.Wrap(retry.LocalIO, fmt.Errorf("error statting destination: %v", err))
	}
	return info.Size(), nil
}

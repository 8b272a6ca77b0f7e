package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harvix/fetchkit/internal/progress"
	"github.com/harvix/fetchkit/internal/utils"
)

// DownloadAll transfers a list of entries through a fixed worker pool. Each
// entry gets its own retry budget from opts. observerFor, when non-nil,
// supplies the progress observer for an entry. Failures are collected and
// reported together after the pool drains.
func DownloadAll(ctx context.Context, entries []utils.DownloadEntry, workers int, observerFor func(utils.DownloadEntry) progress.Func, opts Options) error {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if workers <= 0 {
		workers = 1
	}
	log.Info().Int("totalFiles", len(entries)).Int("workers", workers).Msg("Initiating batch download")

	var wg sync.WaitGroup
	errorCh := make(chan error, len(entries))
	entriesCh := make(chan utils.DownloadEntry, len(entries))
	for _, entry := range entries {
		entriesCh <- entry
	}
	close(entriesCh)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger := log.With().Int("workerID", workerID).Logger()
			for entry := range entriesCh {
				jobID := uuid.New().String()
				jobLog := logger.With().Str("jobID", jobID).Str("output", entry.OutputPath).Logger()
				jobLog.Debug().Str("url", entry.URL).Msg("Worker starting download")

				jobOpts := opts
				jobOpts.Logger = &jobLog
				var observer progress.Func
				if observerFor != nil {
					observer = observerFor(entry)
				}
				size, err := Download(ctx, entry.URL, entry.OutputPath, observer, jobOpts)
				if err != nil {
					jobLog.Error().Err(err).Msg("Download failed")
					errorCh <- fmt.Errorf("error downloading %s: %v", entry.URL, err)
					continue
				}
				jobLog.Debug().Int64("size", size).Msg("Download completed successfully")
			}
		}(i + 1)
	}

	wg.Wait()
	close(errorCh)
	var errs []error
	for err := range errorCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("batch download completed with %d errors: %v", len(errs), errs)
	}
	return nil
}

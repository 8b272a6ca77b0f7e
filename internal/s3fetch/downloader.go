// Package s3fetch retrieves s3:// objects to local files through the AWS
// transfer manager, reporting progress through the same observer contract as
// the HTTP path.
package s3fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/harvix/fetchkit/internal/progress"
	"github.com/harvix/fetchkit/internal/utils"
)

// ParseURL splits an s3://bucket/key URL.
func ParseURL(rawURL string) (string, string, error) {
	if !strings.HasPrefix(rawURL, "s3://") {
		return "", "", fmt.Errorf("not an s3 URL: %s", rawURL)
	}
	parts := strings.SplitN(rawURL[5:], "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("s3 URL must name a bucket and key: %s", rawURL)
	}
	return parts[0], parts[1], nil
}

func NewClient(ctx context.Context) (*s3.Client, error) {
	profile := os.Getenv("AWS_PROFILE")
	if profile == "" {
		profile = "default"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithSharedConfigProfile(profile), config.WithRetryMode("adaptive"))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %v", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.DisableLogOutputChecksumValidationSkipped = true
	}), nil
}

// ObjectSize returns the declared size of an object via HeadObject.
func ObjectSize(ctx context.Context, client *s3.Client, bucket, key string) (int64, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("error heading S3 object: %v", err)
	}
	if head.ContentLength == nil {
		return 0, fmt.Errorf("object size is nil for s3://%s/%s", bucket, key)
	}
	return *head.ContentLength, nil
}

// Download fetches the object to dest and returns the byte count. The
// transfer manager parallelizes parts internally; onProgress observes
// cumulative bytes exactly like the HTTP path.
func Download(ctx context.Context, client *s3.Client, url, dest string, onProgress progress.Func) (int64, error) {
	bucket, key, err := ParseURL(url)
	if err != nil {
		return 0, err
	}
	size, err := ObjectSize(ctx, client, bucket, key)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("error creating output directory: %v", err)
		}
	}
	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %v", err)
	}
	defer file.Close()

	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 8 * 1024 * 1024
		d.Concurrency = 4
		d.BufferProvider = manager.NewPooledBufferedWriterReadFromProvider(utils.DefaultBufferSize)
	})
	pw := newProgressWriter(file, progress.NewReporter(progress.Options{
		Callback: onProgress,
		Total:    size,
	}))
	n, err := downloader.Download(ctx, pw, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	pw.finish()
	if err != nil {
		return 0, fmt.Errorf("error downloading S3 object: %v", err)
	}
	return n, nil
}

// progressWriter forwards WriteAt byte counts into a reporter. The transfer
// manager writes from several goroutines, so samples are serialized here.
type progressWriter struct {
	mu       sync.Mutex
	writer   io.WriterAt
	reporter *progress.Reporter
}

func newProgressWriter(w io.WriterAt, r *progress.Reporter) *progressWriter {
	return &progressWriter{writer: w, reporter: r}
}

func (pw *progressWriter) WriteAt(p []byte, off int64) (int, error) {
	n, err := pw.writer.WriteAt(p, off)
	if n > 0 {
		pw.mu.Lock()
		pw.reporter.Add(n)
		pw.mu.Unlock()
	}
	return n, err
}

func (pw *progressWriter) finish() {
	pw.mu.Lock()
	pw.reporter.Finish()
	pw.mu.Unlock()
}

package s3fetch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harvix/fetchkit/internal/progress"
)

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://my-bucket/path/to/object.bin")
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if bucket != "my-bucket" || key != "path/to/object.bin" {
		t.Errorf("got bucket=%q key=%q", bucket, key)
	}
}

func TestParseURLRejectsMalformed(t *testing.T) {
	for _, url := range []string{
		"https://example.com/file",
		"s3://bucket-only",
		"s3:///no-bucket",
		"s3://bucket/",
	} {
		if _, _, err := ParseURL(url); err == nil {
			t.Errorf("ParseURL(%q) should fail", url)
		}
	}
}

func TestProgressWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var finalWritten int64
	pw := newProgressWriter(f, progress.NewReporter(progress.Options{
		Callback: func(written, total int64, rate float64) { finalWritten = written },
		Total:    10,
	}))

	if _, err := pw.WriteAt([]byte("world"), 5); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if _, err := pw.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	pw.finish()

	if finalWritten != 10 {
		t.Errorf("final written = %d, want 10", finalWritten)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "helloworld" {
		t.Errorf("file content = %q", data)
	}
}

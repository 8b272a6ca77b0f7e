package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harvix/fetchkit/internal/utils"
)

func TestDownloadAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content for " + r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	entries := []utils.DownloadEntry{
		{URL: server.URL + "/a", OutputPath: filepath.Join(dir, "a.bin")},
		{URL: server.URL + "/b", OutputPath: filepath.Join(dir, "b.bin")},
		{URL: server.URL + "/c", OutputPath: filepath.Join(dir, "sub", "c.bin")},
	}
	err := DownloadAll(context.Background(), entries, 2, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	for _, entry := range entries {
		data, err := os.ReadFile(entry.OutputPath)
		if err != nil {
			t.Fatalf("read %s: %v", entry.OutputPath, err)
		}
		if !strings.HasPrefix(string(data), "content for /") {
			t.Errorf("unexpected content in %s: %q", entry.OutputPath, data)
		}
	}
}

func TestDownloadAllCollectsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dir := t.TempDir()
	entries := []utils.DownloadEntry{
		{URL: server.URL + "/fine", OutputPath: filepath.Join(dir, "fine.bin")},
		{URL: server.URL + "/missing", OutputPath: filepath.Join(dir, "missing.bin")},
	}
	opts := DefaultOptions()
	opts.Backoff = time.Millisecond
	err := DownloadAll(context.Background(), entries, 2, nil, opts)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "1 errors") {
		t.Errorf("error should report one failed entry, got %q", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "fine.bin")); err != nil {
		t.Errorf("successful entry should still land: %v", err)
	}
}

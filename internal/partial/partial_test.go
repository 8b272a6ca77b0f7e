package partial

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSizeAbsent(t *testing.T) {
	p := For(filepath.Join(t.TempDir(), "out.bin"))
	size, err := p.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Errorf("got size %d for absent artifact, want 0", size)
	}
}

func TestCreateThenAppend(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	p := For(dest)
	if err := p.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(Path(dest)); err != nil {
		t.Fatalf("artifact missing after Create: %v", err)
	}

	if err := p.OpenAppend(); err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	if err := p.Write([]byte("hello ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// second open appends after flushed bytes
	if err := p.OpenAppend(); err != nil {
		t.Fatalf("OpenAppend again: %v", err)
	}
	if err := p.Write([]byte("world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	size, err := p.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len("hello world")) {
		t.Errorf("got size %d, want %d", size, len("hello world"))
	}
}

func TestOpenTruncateDiscards(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(Path(dest), []byte("stale partial bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	p := For(dest)
	if err := p.OpenTruncate(); err != nil {
		t.Fatalf("OpenTruncate: %v", err)
	}
	if err := p.Write([]byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	size, _ := p.Size()
	if size != 3 {
		t.Errorf("got size %d after truncate, want 3", size)
	}
}

func TestDoubleOpenRejected(t *testing.T) {
	p := For(filepath.Join(t.TempDir(), "out.bin"))
	if err := p.OpenAppend(); err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	defer p.Close()
	if err := p.OpenTruncate(); err == nil {
		t.Error("second open on a live handle should fail")
	}
}

func TestPromote(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	p := For(dest)
	if err := p.OpenTruncate(); err != nil {
		t.Fatalf("OpenTruncate: %v", err)
	}
	if err := p.Write([]byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Promote(); err == nil {
		t.Error("Promote with an open handle should fail")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Promote(); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("destination content %q, want %q", data, "payload")
	}
	if _, err := os.Stat(Path(dest)); !os.IsNotExist(err) {
		t.Error("artifact should be gone after promotion")
	}
}

func TestAcquireSerializes(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bin")
	release := Acquire(dest)

	acquired := make(chan struct{})
	go func() {
		r := Acquire(dest)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire never proceeded after release")
	}
}

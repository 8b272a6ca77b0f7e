// Package ldjson reads and appends line-delimited JSON files, with
// transparent gzip handling and an optional sidecar dedup index.
package ldjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// IndexSuffix is appended to the data path to form the sidecar dedup index,
// one key per line.
const IndexSuffix = ".idx"

const maxLineSize = 16 * 1024 * 1024

// Count returns the number of records in a line-delimited JSON file. Files
// ending in ".gz" are decompressed on the fly; blank lines are ignored.
func Count(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("error opening record file: %v", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("error opening gzip stream: %v", err)
		}
		defer gz.Close()
		reader = gz
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	count := 0
	for scanner.Scan() {
		if len(strings.TrimSpace(scanner.Text())) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error scanning record file: %v", err)
	}
	return count, nil
}

// AppendOptions configures Append.
type AppendOptions struct {
	// DedupField names the record field whose value keys the sidecar dedup
	// index. Empty disables deduplication.
	DedupField string
}

// Append JSON-encodes records onto the end of a line-delimited file, creating
// it on demand. With a dedup field set, records whose key already appears in
// the sidecar index are skipped and new keys are appended to it. Gzip targets
// get the batch as a fresh gzip member, which readers treat as one
// concatenated stream. Returns the number of records written.
func Append(path string, records []any, opts AppendOptions) (int, error) {
	seen := make(map[string]bool)
	if opts.DedupField != "" {
		keys, err := readIndex(path + IndexSuffix)
		if err != nil {
			return 0, err
		}
		seen = keys
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("error opening record file: %v", err)
	}
	defer f.Close()

	var writer io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		writer = gz
	}

	var newKeys []string
	written := 0
	for i, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return written, fmt.Errorf("error encoding record %d: %v", i+1, err)
		}
		if opts.DedupField != "" {
			key, err := recordKey(line, opts.DedupField)
			if err != nil {
				return written, fmt.Errorf("record %d: %v", i+1, err)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			newKeys = append(newKeys, key)
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return written, fmt.Errorf("error appending record %d: %v", i+1, err)
		}
		written++
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return written, fmt.Errorf("error flushing gzip stream: %v", err)
		}
	}

	if opts.DedupField != "" && len(newKeys) > 0 {
		if err := appendIndex(path+IndexSuffix, newKeys); err != nil {
			return written, err
		}
	}
	return written, nil
}

func recordKey(line []byte, field string) (string, error) {
	var decoded map[string]any
	if err := json.Unmarshal(line, &decoded); err != nil {
		return "", fmt.Errorf("error decoding record for dedup: %v", err)
	}
	value, ok := decoded[field]
	if !ok || value == nil {
		return "", fmt.Errorf("missing dedup field %q", field)
	}
	return fmt.Sprintf("%v", value), nil
}

func readIndex(path string) (map[string]bool, error) {
	keys := make(map[string]bool)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening dedup index: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if key := strings.TrimSpace(scanner.Text()); key != "" {
			keys[key] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dedup index: %v", err)
	}
	return keys, nil
}

func appendIndex(path string, keys []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening dedup index: %v", err)
	}
	defer f.Close()
	for _, key := range keys {
		if _, err := fmt.Fprintln(f, key); err != nil {
			return fmt.Errorf("error appending to dedup index: %v", err)
		}
	}
	return nil
}

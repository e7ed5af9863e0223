package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash for the first entry in a new decision log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Log is an append-only JSONL decision log with SHA-256 hash chaining.
// Each entry's prev_hash is the hash of the previous JSON line.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	now      func() time.Time
	mu       sync.Mutex
}

// Open opens (or creates) a decision log for appending.
// An existing file's last line seeds the chain tail.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash, err := tailHash(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Log{
		path:     path,
		file:     file,
		prevHash: prevHash,
		now:      time.Now,
	}, nil
}

func tailHash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return GenesisHash, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var last []byte
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("audit: scan existing log: %w", err)
	}
	if len(last) == 0 {
		return GenesisHash, nil
	}
	return HashLine(last), nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Record appends e, setting its timestamp (if empty) and prev_hash.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp == "" {
		e.Timestamp = l.now().UTC().Format(TimeFormat)
	}
	e.PrevHash = l.prevHash

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

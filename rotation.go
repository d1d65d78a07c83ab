package justlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// Backups may sit on disk plain or gzipped; every slot operation has to
// consider both names.
var backupSuffixes = []string{"", ".gz"}

// fileSink owns the active log file and its rotation state. It
// serializes all writes and rotations behind one mutex, which is what
// makes the logger safe for concurrent use without any locking of its
// own above this layer.
//
// On-disk layout: path (active), path.1 (newest backup) through
// path.N (oldest), indices shifting on each rotation. With compression
// enabled backups carry an extra .gz suffix.
type fileSink struct {
	mu          sync.Mutex
	path        string
	file        *os.File
	size        int64
	maxBytes    int64
	backupCount int
	compress    bool
}

func newFileSink(path string, maxBytes int64, backupCount int, compress bool) (*fileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	s := &fileSink{
		path:        path,
		maxBytes:    maxBytes,
		backupCount: backupCount,
		compress:    compress,
	}
	if err := s.reopen(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return s, nil
}

// Write appends p to the active file, rotating first when the write
// would push the file past maxBytes. A single write larger than
// maxBytes lands in a fresh file and may transiently exceed the limit;
// the next write rotates it out.
func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, fmt.Errorf("log file %s is not open", s.path)
	}

	if s.maxBytes > 0 && s.size > 0 && s.size+int64(len(p)) > s.maxBytes {
		if err := s.rotate(); err != nil {
			return 0, fmt.Errorf("log rotation failed: %w", err)
		}
	}

	n, err := s.file.Write(p)
	s.size += int64(n)
	return n, err
}

// Rotate forces a rotation regardless of the active file's size.
func (s *fileSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("log file %s is not open", s.path)
	}
	return s.rotate()
}

// rotate shifts the backup chain up one slot and starts a fresh active
// file. Caller must hold the lock.
func (s *fileSink) rotate() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	s.file = nil

	if s.backupCount < 1 {
		// No backup slots configured: start the active file over.
		file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("failed to truncate log file: %w", err)
		}
		s.file = file
		s.size = 0
		return nil
	}

	// Drop the oldest slot, then shift every remaining backup up one.
	for _, suffix := range backupSuffixes {
		os.Remove(fmt.Sprintf("%s.%d%s", s.path, s.backupCount, suffix))
	}
	for i := s.backupCount - 1; i >= 1; i-- {
		for _, suffix := range backupSuffixes {
			src := fmt.Sprintf("%s.%d%s", s.path, i, suffix)
			if _, err := os.Stat(src); err == nil {
				os.Rename(src, fmt.Sprintf("%s.%d%s", s.path, i+1, suffix))
			}
		}
	}

	newest := s.path + ".1"
	if err := os.Rename(s.path, newest); err != nil {
		// Reopen so later writes still have somewhere to go.
		if reopenErr := s.reopen(); reopenErr != nil {
			return fmt.Errorf("failed to rename log file (%v) and couldn't reopen it (%v)", err, reopenErr)
		}
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if err := s.reopen(); err != nil {
		return fmt.Errorf("failed to create new log file: %w", err)
	}

	if s.compress {
		if err := compressBackup(newest); err != nil {
			return fmt.Errorf("failed to compress backup: %w", err)
		}
	}
	return nil
}

func (s *fileSink) reopen() error {
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.file = file
	s.size = 0
	if fi, err := file.Stat(); err == nil {
		s.size = fi.Size()
	}
	return nil
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// compressBackup gzips path in place, replacing it with path.gz.
func compressBackup(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		dst.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := gz.Close(); err != nil {
		dst.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path + ".gz")
		return err
	}
	return os.Remove(path)
}

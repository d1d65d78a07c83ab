package justlog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/valyala/fastjson"
)

var backupPattern = regexp.MustCompile(`\.\d+(\.gz)?$`)

// CleanupOldLogs applies the retention window. Backup files whose
// modification time falls outside the window are deleted whole; the
// active file is never deleted but is rewritten keeping only lines
// whose timestamp is still inside the window. Lines without a parsable
// timestamp (continuation lines, extras blocks, foreign content) are
// always kept, and a malformed line never aborts the rest of the pass.
//
// Setup runs this once at configuration time when BackupDays > 0. There
// is no recurring scheduler; a long-running process that never restarts
// can call it periodically itself.
func (l *Logger) CleanupOldLogs() error {
	if l.config.BackupDays <= 0 || l.file == nil {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -l.config.BackupDays)

	var firstErr error
	if err := removeOldBackups(l.file.path, cutoff); err != nil {
		firstErr = err
	}
	if err := l.file.pruneLines(l.lineKeeper(cutoff)); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// lineKeeper builds the per-line retention predicate for the active
// file. Plain lines carry the timestamp as a fixed-width prefix; JSON
// lines carry it in the "timestamp" key.
func (l *Logger) lineKeeper(cutoff time.Time) func([]byte) bool {
	tsLen := len(time.Unix(0, 0).UTC().Format(l.timestampFormat))
	return func(line []byte) bool {
		trimmed := bytes.TrimRight(line, "\r\n")
		if len(trimmed) == 0 {
			return true
		}

		var raw string
		if l.outputFormat == FormatJSON {
			v, err := fastjson.ParseBytes(trimmed)
			if err != nil {
				return true
			}
			ts := v.GetStringBytes("timestamp")
			if ts == nil {
				return true
			}
			raw = string(ts)
		} else {
			if len(trimmed) < tsLen {
				return true
			}
			raw = string(trimmed[:tsLen])
		}

		ts, err := time.ParseInLocation(l.timestampFormat, raw, time.Local)
		if err != nil {
			return true
		}
		return !ts.Before(cutoff)
	}
}

// removeOldBackups deletes rotated backups (plain or gzipped) last
// modified before cutoff. The active file is never a candidate.
func removeOldBackups(path string, cutoff time.Time) error {
	matches, err := filepath.Glob(path + ".*")
	if err != nil {
		return err
	}

	var firstErr error
	for _, match := range matches {
		if !backupPattern.MatchString(match) {
			continue
		}
		fi, err := os.Stat(match)
		if err != nil {
			continue
		}
		if fi.ModTime().Before(cutoff) {
			if err := os.Remove(match); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to remove old backup %s: %w", match, err)
			}
		}
	}
	return firstErr
}

// pruneLines rewrites the active file keeping only lines accepted by
// keep. The rewrite goes through a temp file in the same directory so a
// crash mid-cleanup leaves the original intact.
func (s *fileSink) pruneLines(keep func([]byte) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	var kept bytes.Buffer
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if keep(line) {
			kept.Write(line)
		}
	}
	if kept.Len() == len(data) {
		return nil
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, kept.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write pruned log file: %w", err)
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("failed to close log file: %w", err)
		}
		s.file = nil
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		if reopenErr := s.reopen(); reopenErr != nil {
			return fmt.Errorf("failed to replace log file (%v) and couldn't reopen it (%v)", err, reopenErr)
		}
		return fmt.Errorf("failed to replace log file: %w", err)
	}
	return s.reopen()
}

// Package history provides the append-only play history log.
// Each credited play is one JSON object on its own line.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

const (
	appName         = "tunecore"
	historyFileName = "history.jsonl"

	// maxRecordSize bounds a single line; longer lines are treated as corrupt.
	maxRecordSize = 1 << 20
)

// DefaultPath returns the history file location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, historyFileName))
}

// FileStore implements ports.HistoryStore on a JSON-lines file.
//
// Thread-safety: writers (Append, Clear, Import) are serialized by mu. Each
// record is written with a single write call on an O_APPEND descriptor, so
// concurrent ReadAll calls see whole lines only.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store backed by path, creating its directory if needed.
// An empty path selects DefaultPath.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve history path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &FileStore{
		path:   path,
		logger: logger.With(slog.String("component", "history")),
	}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes event as one line at the end of the log.
func (s *FileStore) Append(event domain.PlayEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return domain.NewRepositoryError("append", "history", "failed to encode event", err)
	}
	if len(line) > maxRecordSize {
		return domain.NewRepositoryError("append", "history", "record too large", errRecordTooLarge)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return domain.NewRepositoryError("append", "history", "failed to open log", err)
	}

	_, werr := f.Write(line)
	cerr := f.Close()
	if werr != nil {
		return domain.NewRepositoryError("append", "history", "failed to write record", werr)
	}
	if cerr != nil {
		return domain.NewRepositoryError("append", "history", "failed to close log", cerr)
	}
	return nil
}

// ReadAll parses every record in file order. Malformed and oversized lines
// are skipped; reading continues with the next line.
func (s *FileStore) ReadAll() ([]domain.PlayEvent, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.PlayEvent{}, nil
	}
	if err != nil {
		return nil, domain.NewRepositoryError("read", "history", "failed to open log", err)
	}
	defer f.Close()

	events := []domain.PlayEvent{}
	skipped := 0

	r := bufio.NewReaderSize(f, 64*1024)
	var buf []byte
	for {
		line, tooLong, err := readLine(r, buf[:0])
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, domain.NewRepositoryError("read", "history", "failed to read log", err)
		}

		if tooLong {
			skipped++
		} else if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if event, derr := decodeRecord(trimmed); derr == nil {
				events = append(events, event)
			} else {
				skipped++
			}
		}

		if err != nil {
			break
		}
		buf = line
	}

	if skipped > 0 {
		s.logger.Debug("skipped malformed history records", slog.Int("count", skipped))
	}
	return events, nil
}

// readLine reads up to and including the next newline into buf. Once a line
// exceeds maxRecordSize the rest of it is consumed and discarded, and tooLong
// is set. err is io.EOF after the last line.
func readLine(r *bufio.Reader, buf []byte) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			n := len(chunk)
			if n > 0 && chunk[n-1] == '\n' {
				n--
			}
			if len(buf)+n > maxRecordSize {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, tooLong, err
	}
}

// Clear deletes all records.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Truncate(s.path, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewRepositoryError("clear", "history", "failed to truncate log", err)
	}
	return nil
}

// Export copies the raw log to w.
func (s *FileStore) Export(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return domain.NewRepositoryError("export", "history", "failed to open log", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return domain.NewRepositoryError("export", "history", "failed to copy log", err)
	}
	return nil
}

// Import replaces the log with the bytes read from r.
// Every non-blank line must be a valid record; otherwise the payload is
// rejected with an ImportError and the existing log is left untouched.
func (s *FileStore) Import(r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return domain.NewImportError("history", "failed to read payload", err)
	}

	if err := ValidatePayload(payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.tmp")
	if err != nil {
		return domain.NewRepositoryError("import", "history", "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return domain.NewRepositoryError("import", "history", "failed to write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return domain.NewRepositoryError("import", "history", "failed to sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewRepositoryError("import", "history", "failed to close temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return domain.NewRepositoryError("import", "history", "failed to replace log", err)
	}
	return nil
}

// ValidatePayload checks that every non-blank line of payload is a valid record.
func ValidatePayload(payload []byte) error {
	for i, line := range bytes.Split(payload, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if len(line) > maxRecordSize {
			return domain.NewImportError("history", fmt.Sprintf("line %d: %v", i+1, errRecordTooLarge), errRecordTooLarge)
		}
		if _, err := decodeRecord(line); err != nil {
			return domain.NewImportError("history", fmt.Sprintf("line %d: %v", i+1, err), err)
		}
	}
	return nil
}

var (
	errMissingTimestamp = errors.New("record has no timestamp")
	errRecordTooLarge   = fmt.Errorf("record exceeds %d bytes", maxRecordSize)
)

func decodeRecord(line []byte) (domain.PlayEvent, error) {
	var event domain.PlayEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return domain.PlayEvent{}, err
	}
	if event.Timestamp.IsZero() {
		return domain.PlayEvent{}, errMissingTimestamp
	}
	return event, nil
}

// Verify interface implementation
var _ ports.HistoryStore = (*FileStore)(nil)

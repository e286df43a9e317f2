package ftpsync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"unicode/utf8"
)

// ValidateFunc inspects the decoded shape of a ledger file before it is
// trusted. Sizes are presented as json.Number. Returning false discards the
// file's content: the ledger behaves as if it were empty.
type ValidateFunc func(records []map[string]any) bool

// ValidateShape is a ValidateFunc that requires every record to have a
// string "name", a non-negative integer "size" and a string "modified_date".
func ValidateShape(records []map[string]any) bool {
	for _, r := range records {
		if _, ok := r["name"].(string); !ok {
			return false
		}
		if _, ok := r["modified_date"].(string); !ok {
			return false
		}
		switch size := r["size"].(type) {
		case json.Number:
			n, err := size.Int64()
			if err != nil || n < 0 {
				return false
			}
		case float64:
			if size < 0 || size != math.Trunc(size) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Ledger is the append-only record of completed downloads.
//
// The in-memory set answers Contains; when the ledger has a file, every
// Append rewrites the whole file as a pretty-printed JSON array:
//
//	[
//	  {
//	    "name": "ipg150519.tar.gz",
//	    "size": 11134012,
//	    "modified_date": "Mar 01 2018"
//	  }
//	]
//
// A missing file is an empty ledger. A corrupt file, or one rejected by the
// validator, is logged and treated as empty; it never fails a download.
//
// Records are never edited or removed, and appending an entry twice stores
// it twice. A Ledger is not safe for concurrent use.
type Ledger struct {
	path     string
	fs       FileSystem
	validate ValidateFunc
	logger   *slog.Logger

	records []Entry
	index   map[Entry]struct{}
	loaded  bool
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerFS sets the file system holding the ledger file.
// The default is OSFileSystem.
func WithLedgerFS(fsys FileSystem) LedgerOption {
	return func(l *Ledger) {
		l.fs = fsys
	}
}

// WithValidator installs a shape check run on every read of the file.
func WithValidator(validate ValidateFunc) LedgerOption {
	return func(l *Ledger) {
		l.validate = validate
	}
}

// WithLedgerLogger sets the logger used for recoverable ledger problems.
func WithLedgerLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// NewLedger returns a ledger stored at path. An empty path gives a
// memory-only ledger that forgets everything when the process exits.
// Nothing is read until Load.
func NewLedger(path string, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		path:   path,
		fs:     OSFileSystem{},
		logger: slog.New(slog.DiscardHandler),
		index:  make(map[Entry]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the ledger file path, or "" for a memory-only ledger.
func (l *Ledger) Path() string {
	return l.path
}

// Loaded reports whether Load has completed.
func (l *Ledger) Loaded() bool {
	return l.loaded
}

// Load reads the ledger file into memory and returns its records.
//
// Only unexpected read failures (permissions, I/O) are returned. A missing,
// corrupt or rejected file yields an empty ledger.
func (l *Ledger) Load() ([]Entry, error) {
	var records []Entry
	if l.path != "" {
		stored, _, err := l.readStore()
		switch {
		case errors.Is(err, ErrLedgerFormat):
			l.logger.Warn("ignoring unreadable download history, proceeding without it",
				"path", l.path, "error", err)
		case err != nil:
			return nil, err
		default:
			records = stored
		}
	}

	l.records = records
	l.index = make(map[Entry]struct{}, len(records))
	for _, r := range records {
		l.index[r] = struct{}{}
	}
	l.loaded = true
	l.logger.Debug("download history loaded", "path", l.path, "records", len(records))

	return l.Records(), nil
}

// Contains reports whether an identical entry has been recorded.
func (l *Ledger) Contains(e Entry) bool {
	_, ok := l.index[e]
	return ok
}

// Append records e. If the ledger has a file, the file is re-read and
// rewritten in full with e added at the end; an unreadable file is replaced
// by a new one holding only e.
//
// Entries whose name or date is not valid UTF-8 are refused: JSON would
// store them altered and they would never match again after a reload.
func (l *Ledger) Append(e Entry) error {
	if !utf8.ValidString(e.Name) || !utf8.ValidString(e.ModifiedDate) {
		return fmt.Errorf("cannot record %q: not valid UTF-8", e.Name)
	}
	if l.path != "" {
		stored, exists, err := l.readStore()
		switch {
		case errors.Is(err, ErrLedgerFormat):
			l.logger.Error("unable to read download history, creating a new one",
				"path", l.path, "error", err)
			stored = nil
		case err != nil:
			return err
		case !exists:
			l.logger.Info("creating new download history", "path", l.path)
		}

		data, err := encodeLedger(append(stored, e))
		if err != nil {
			return fmt.Errorf("failed to encode download history: %w", err)
		}
		if err := l.fs.WriteFile(l.path, data); err != nil {
			return fmt.Errorf("failed to write download history %s: %w", l.path, err)
		}
	}

	l.records = append(l.records, e)
	l.index[e] = struct{}{}
	return nil
}

// Records returns a copy of the in-memory records in append order.
func (l *Ledger) Records() []Entry {
	out := make([]Entry, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of in-memory records, duplicates included.
func (l *Ledger) Len() int {
	return len(l.records)
}

// readStore reads and decodes the ledger file. exists is false when the file
// is missing, which is not an error.
func (l *Ledger) readStore() (records []Entry, exists bool, err error) {
	data, err := l.fs.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read download history %s: %w", l.path, err)
	}

	records, err = decodeLedger(data, l.validate)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}

// decodeLedger decodes a ledger document, running validate on its generic
// shape first when set.
func decodeLedger(data []byte, validate ValidateFunc) ([]Entry, error) {
	if validate != nil {
		var shape []map[string]any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&shape); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLedgerFormat, err)
		}
		if !validate(shape) {
			return nil, fmt.Errorf("%w: rejected by validator", ErrLedgerFormat)
		}
	}

	var records []Entry
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerFormat, err)
	}
	return records, nil
}

// encodeLedger renders records as an indented JSON array. Non-ASCII names
// are written as-is rather than escaped.
func encodeLedger(records []Entry) ([]byte, error) {
	if records == nil {
		records = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package ftpsync

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultDownloadDir is the local download directory used when
// WithDownloadDir is not given.
const DefaultDownloadDir = "downloaded_ftp"

// Syncer downloads the files of remote directories that have not been
// downloaded before.
//
// A Syncer drives a single Session and is not safe for concurrent use.
// Every method blocks until the server has answered.
type Syncer struct {
	dial    Dialer
	session Session
	addr    string

	fs          FileSystem
	downloadDir string

	filter     func(Entry) bool
	classifier Classifier
	probe      bool
	parser     ListingParser

	ledgerPath string
	validate   ValidateFunc
	ledger     *Ledger

	// cwd caches the listing of the current remote directory. nil means
	// not fetched yet; ChangeDir and Connect reset it to nil.
	cwd *listing

	logger   *slog.Logger
	metrics  MetricsCollector
	progress ProgressFunc
}

// listing is a classified directory listing.
type listing struct {
	files []Entry
	dirs  []Entry
}

// Result summarizes one SyncDir call.
type Result struct {
	// RunID identifies the call in log output.
	RunID string

	// Path is the remote directory that was synchronized.
	Path string

	// Listed is the number of files in the listing (directories excluded).
	Listed int

	// Filtered is the number of files rejected by the filter.
	Filtered int

	// Skipped is the number of files found in the download history.
	Skipped int

	// Downloaded lists the files transferred, in order.
	Downloaded []Entry

	// Bytes is the total number of bytes written locally.
	Bytes int64
}

// New creates a Syncer. The download directory is created immediately.
// If WithHost was given, New also connects; on failure it returns an error
// wrapping ErrConnection.
//
// Example:
//
//	syncer, err := ftpsync.New(
//	    ftpsync.WithSession(client),
//	    ftpsync.WithDownloadDir("downloads"),
//	    ftpsync.WithLedgerFile("downloads/history.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer syncer.Close()
//
//	result, err := syncer.SyncDir("/pub/data")
func New(opts ...Option) (*Syncer, error) {
	s := &Syncer{
		fs:          OSFileSystem{},
		downloadDir: DefaultDownloadDir,
		parser:      &UnixParser{},
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := s.fs.EnsureDir(s.downloadDir); err != nil {
		return nil, fmt.Errorf("failed to create download directory %s: %w", s.downloadDir, err)
	}

	s.ledger = NewLedger(s.ledgerPath,
		WithLedgerFS(s.fs),
		WithValidator(s.validate),
		WithLedgerLogger(s.logger),
	)

	if s.addr != "" {
		if err := s.Connect(s.addr); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Connect opens a session to addr with the configured Dialer, replacing
// any current session.
func (s *Syncer) Connect(addr string) error {
	if s.dial == nil {
		return &OpError{Op: "connect", Path: addr, Kind: ErrConnection, Err: errors.New("no dialer configured")}
	}

	session, err := s.dial(addr)
	if err != nil {
		s.logger.Error("failed to connect, check the address and network", "addr", addr, "error", err)
		return &OpError{Op: "connect", Path: addr, Kind: ErrConnection, Err: err}
	}

	if s.session != nil {
		_ = s.Close()
	}
	s.session = session
	s.addr = addr
	s.cwd = nil
	s.logger.Info("connected", "addr", addr)
	return nil
}

// Login authenticates the current session. A rejected login is returned
// wrapping ErrAuth; the session is left open for the caller to Close.
func (s *Syncer) Login(user, password string) error {
	session, err := s.connected("login", s.addr)
	if err != nil {
		return err
	}
	if err := session.Login(user, password); err != nil {
		s.logger.Error("failed to login, check the credentials", "addr", s.addr, "user", user, "error", err)
		return &OpError{Op: "login", Path: s.addr, Kind: ErrAuth, Err: err}
	}
	s.logger.Debug("logged in", "addr", s.addr, "user", user)
	return nil
}

// Close ends the session: QUIT first, then a forced close if the server
// does not answer properly. Close on a Syncer without session is a no-op.
func (s *Syncer) Close() error {
	if s.session == nil {
		return nil
	}
	session := s.session
	s.session = nil
	s.cwd = nil

	if err := session.Quit(); err != nil {
		s.logger.Debug("QUIT failed, closing connection", "error", err)
		return session.Close()
	}
	return nil
}

// DownloadDir returns the local download directory.
func (s *Syncer) DownloadDir() string {
	return s.downloadDir
}

// SetDownloadDir changes the local download directory, creating it if
// needed. Later downloads go to the new directory.
func (s *Syncer) SetDownloadDir(dir string) error {
	if dir == "" {
		return errors.New("download directory cannot be empty")
	}
	if err := s.fs.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create download directory %s: %w", dir, err)
	}
	s.downloadDir = dir
	return nil
}

// Ledger returns the download history.
func (s *Syncer) Ledger() *Ledger {
	return s.ledger
}

// ChangeDir changes the remote working directory and forgets the cached
// listing of the previous one.
func (s *Syncer) ChangeDir(path string) error {
	session, err := s.connected("cwd", path)
	if err != nil {
		return err
	}
	if err := session.ChangeDir(path); err != nil {
		return &OpError{Op: "cwd", Path: path, Kind: ErrRemote, Err: err}
	}
	s.cwd = nil
	s.logger.Debug("changed directory", "path", path)
	return nil
}

// Files returns the files in path ("" is the current directory).
// Names are composed with path.
//
// The current directory listing is cached until ChangeDir; explicit paths
// are listed afresh on every call.
func (s *Syncer) Files(path string) ([]Entry, error) {
	l, err := s.list(path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(l.files), nil
}

// Directories returns the directories in path ("" is the current
// directory), with the same caching as Files.
func (s *Syncer) Directories(path string) ([]Entry, error) {
	l, err := s.list(path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(l.dirs), nil
}

// SyncDir downloads the files of path ("" is the current directory) that
// pass the filter and are not in the download history.
//
// Files are downloaded one at a time in listing order into DownloadDir,
// named after the last segment of their remote path. Each completed
// download is recorded in the history before the next one starts.
//
// The first failed download stops the call: the partial local file is
// removed and an error wrapping ErrTransfer is returned together with the
// Result so far. Nothing is retried.
//
// A download that completes but cannot be recorded also stops the call,
// with an error wrapping ErrLedger. The file stays on disk and is listed in
// Result.Downloaded; since the history lacks it, the next run fetches it
// again.
func (s *Syncer) SyncDir(path string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Path: path}
	logger := s.logger.With("run_id", res.RunID, "path", path)

	if !s.ledger.Loaded() {
		if _, err := s.ledger.Load(); err != nil {
			return res, &OpError{Op: "load history", Path: s.ledger.Path(), Kind: ErrLedger, Err: err}
		}
	}

	l, err := s.list(path)
	if err != nil {
		logger.Error("failed to list directory", "error", err)
		return res, err
	}
	res.Listed = len(l.files)

	for _, entry := range l.files {
		if s.filter != nil && !s.filter(entry) {
			res.Filtered++
			s.recordSkip(entry, SkipFiltered)
			continue
		}
		if s.ledger.Contains(entry) {
			res.Skipped++
			s.recordSkip(entry, SkipDownloaded)
			logger.Debug("already downloaded", "name", entry.Name)
			continue
		}

		n, err := s.download(entry, logger)
		res.Bytes += n
		if errors.Is(err, ErrLedger) {
			// complete on disk, only the history update failed
			res.Downloaded = append(res.Downloaded, entry)
		}
		if err != nil {
			logger.Error("download failed, stopping", "name", entry.Name, "error", err)
			return res, err
		}
		res.Downloaded = append(res.Downloaded, entry)
	}

	logger.Info("directory synchronized",
		"listed", res.Listed,
		"filtered", res.Filtered,
		"skipped", res.Skipped,
		"downloaded", len(res.Downloaded),
		"bytes", res.Bytes)

	return res, nil
}

// download retrieves entry into the download directory and records it.
func (s *Syncer) download(entry Entry, logger *slog.Logger) (int64, error) {
	session, err := s.connected("retrieve", entry.Name)
	if err != nil {
		return 0, err
	}

	name := BaseName(entry.Name)
	if name == "" || name == "." || name == ".." {
		return 0, &OpError{Op: "retrieve", Path: entry.Name, Kind: ErrTransfer,
			Err: fmt.Errorf("cannot derive a local file name from %q", entry.Name)}
	}
	localPath := filepath.Join(s.downloadDir, name)

	logger.Info("downloading", "name", entry.Name, "size", entry.Size, "local", localPath)

	f, err := s.fs.Create(localPath)
	if err != nil {
		return 0, &OpError{Op: "create", Path: localPath, Kind: ErrTransfer, Err: err}
	}

	pw := &ProgressWriter{Writer: f}
	if s.progress != nil {
		pw.Callback = func(n int64) { s.progress(entry, n) }
	}

	start := time.Now()
	err = session.Retrieve(entry.Name, pw)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", localPath, closeErr)
	}
	duration := time.Since(start)

	if err != nil {
		if rmErr := s.fs.Remove(localPath); rmErr != nil {
			logger.Warn("failed to remove partial download", "local", localPath, "error", rmErr)
		}
		s.recordTransfer(entry, pw.Total(), false, duration)
		return pw.Total(), &OpError{Op: "retrieve", Path: entry.Name, Kind: ErrTransfer, Err: err}
	}
	s.recordTransfer(entry, pw.Total(), true, duration)

	if err := s.ledger.Append(entry); err != nil {
		return pw.Total(), &OpError{Op: "record", Path: entry.Name, Kind: ErrLedger, Err: err}
	}
	logger.Debug("download complete", "name", entry.Name, "bytes", pw.Total(), "duration", duration)

	return pw.Total(), nil
}

// list returns the classified listing of path, using the current directory
// cache for "".
func (s *Syncer) list(path string) (*listing, error) {
	if path == "" && s.cwd != nil {
		return s.cwd, nil
	}

	l, err := s.fetchListing(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		s.cwd = l
	}
	return l, nil
}

// fetchListing issues LIST for path, then parses and classifies the lines.
func (s *Syncer) fetchListing(path string) (*listing, error) {
	session, err := s.connected("list", path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	lines, err := session.List(path)
	if err != nil {
		s.recordListing(path, 0, false, time.Since(start))
		return nil, &OpError{Op: "list", Path: path, Kind: ErrRemote, Err: err}
	}

	entries := ParseListing(lines, s.parser, s.logger)
	// "." and ".." would collapse into their parent once joined with path
	entries = slices.DeleteFunc(entries, func(e Entry) bool {
		return e.Name == "." || e.Name == ".."
	})
	for i := range entries {
		entries[i] = entries[i].WithPath(path)
	}

	files, dirs, err := classifyAll(s.classifierFor(session), entries)
	if err != nil {
		s.recordListing(path, 0, false, time.Since(start))
		return nil, err
	}
	s.recordListing(path, len(entries), true, time.Since(start))

	s.logger.Debug("listed directory", "path", path, "files", len(files), "dirs", len(dirs))
	return &listing{files: files, dirs: dirs}, nil
}

func (s *Syncer) classifierFor(session Session) Classifier {
	switch {
	case s.classifier != nil:
		return s.classifier
	case s.probe:
		return &ProbeClassifier{Prober: session}
	default:
		return ExtensionClassifier{}
	}
}

// connected returns the current session or an error wrapping
// ErrNotConnected.
func (s *Syncer) connected(op, path string) (Session, error) {
	if s.session == nil {
		return nil, &OpError{Op: op, Path: path, Kind: ErrConnection, Err: ErrNotConnected}
	}
	return s.session, nil
}

func (s *Syncer) recordListing(path string, entries int, success bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordListing(path, entries, success, d)
	}
}

func (s *Syncer) recordTransfer(entry Entry, bytes int64, success bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordTransfer(entry, bytes, success, d)
	}
}

func (s *Syncer) recordSkip(entry Entry, reason string) {
	if s.metrics != nil {
		s.metrics.RecordSkip(entry, reason)
	}
}

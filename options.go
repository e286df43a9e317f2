package ftpsync

import (
	"errors"
	"log/slog"
)

// Option is a functional option for configuring a Syncer.
type Option func(*Syncer) error

// WithHost makes New connect to addr ("host:port") before returning.
// A Dialer must also be configured. Without WithHost, call Connect later or
// supply an open session with WithSession.
func WithHost(addr string) Option {
	return func(s *Syncer) error {
		s.addr = addr
		return nil
	}
}

// WithDialer sets the function used by Connect to open sessions.
//
// Example:
//
//	syncer, err := ftpsync.New(
//	    ftpsync.WithDialer(func(addr string) (ftpsync.Session, error) {
//	        return ftpconn.Dial(addr, ftpconn.WithTimeout(30*time.Second))
//	    }),
//	    ftpsync.WithHost("ftp.example.com:21"),
//	)
func WithDialer(dial Dialer) Option {
	return func(s *Syncer) error {
		s.dial = dial
		return nil
	}
}

// WithSession uses an already connected session.
func WithSession(session Session) Option {
	return func(s *Syncer) error {
		if session == nil {
			return errors.New("session cannot be nil")
		}
		s.session = session
		return nil
	}
}

// WithDownloadDir sets the local directory files are downloaded into.
// It is created by New if missing. The default is DefaultDownloadDir.
func WithDownloadDir(dir string) Option {
	return func(s *Syncer) error {
		if dir == "" {
			return errors.New("download directory cannot be empty")
		}
		s.downloadDir = dir
		return nil
	}
}

// WithFilter sets a predicate selecting which listed files are downloaded.
// Files for which keep returns false are skipped.
//
// Example:
//
//	ftpsync.WithFilter(func(e ftpsync.Entry) bool {
//	    return strings.HasSuffix(e.Name, ".tar.gz")
//	})
func WithFilter(keep func(Entry) bool) Option {
	return func(s *Syncer) error {
		s.filter = keep
		return nil
	}
}

// WithLedgerFile persists the download history at path, so files
// downloaded by earlier runs are not fetched again. Without it the history
// only lives as long as the Syncer.
func WithLedgerFile(path string) Option {
	return func(s *Syncer) error {
		s.ledgerPath = path
		return nil
	}
}

// WithLedgerValidator checks the shape of the ledger file before it is
// trusted. See ValidateShape.
func WithLedgerValidator(validate ValidateFunc) Option {
	return func(s *Syncer) error {
		s.validate = validate
		return nil
	}
}

// WithSizeProbe classifies entries with a SIZE request in addition to the
// extension rule (see ProbeClassifier). It costs one round trip per entry.
// It has no effect when WithClassifier is also given.
func WithSizeProbe() Option {
	return func(s *Syncer) error {
		s.probe = true
		return nil
	}
}

// WithClassifier replaces the file/directory heuristic.
func WithClassifier(c Classifier) Option {
	return func(s *Syncer) error {
		if c == nil {
			return errors.New("classifier cannot be nil")
		}
		s.classifier = c
		return nil
	}
}

// WithListingParser replaces the Unix listing parser.
func WithListingParser(p ListingParser) Option {
	return func(s *Syncer) error {
		if p == nil {
			return errors.New("listing parser cannot be nil")
		}
		s.parser = p
		return nil
	}
}

// WithFileSystem sets the local file system used for downloads and the
// ledger file. The default is OSFileSystem.
func WithFileSystem(fsys FileSystem) Option {
	return func(s *Syncer) error {
		if fsys == nil {
			return errors.New("file system cannot be nil")
		}
		s.fs = fsys
		return nil
	}
}

// WithLogger enables logging using the provided logger.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	syncer, _ := ftpsync.New(ftpsync.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the collector notified of listings, transfers and skips.
func WithMetrics(m MetricsCollector) Option {
	return func(s *Syncer) error {
		s.metrics = m
		return nil
	}
}

// WithProgress sets a callback invoked as download bytes are written.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Syncer) error {
		s.progress = fn
		return nil
	}
}

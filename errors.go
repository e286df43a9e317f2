package ftpsync

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the remote and sync operations of a
// Syncer (Connect, Login, ChangeDir, Files, Directories, SyncDir) wraps
// exactly one of these, so callers can decide what to do with errors.Is:
//
//	if errors.Is(err, ftpsync.ErrAuth) {
//	    // bad credentials, retrying will not help
//	}
var (
	// ErrConnection reports a failure to reach the server.
	ErrConnection = errors.New("ftpsync: connection failed")

	// ErrAuth reports rejected credentials.
	ErrAuth = errors.New("ftpsync: authentication failed")

	// ErrRemote reports a failed remote operation (LIST, CWD, SIZE).
	ErrRemote = errors.New("ftpsync: remote operation failed")

	// ErrTransfer reports a failed download. It stops the current SyncDir.
	ErrTransfer = errors.New("ftpsync: transfer failed")

	// ErrLedger reports a download history that could not be read or
	// written, or an entry it refused to record.
	ErrLedger = errors.New("ftpsync: download history failed")

	// ErrLedgerFormat reports a ledger file that could not be decoded or
	// was rejected by the validator. Ledger methods log it and start over
	// with an empty ledger instead of returning it.
	ErrLedgerFormat = errors.New("ftpsync: invalid ledger format")

	// ErrListingParse reports a listing line that does not look like
	// "perms links owner group size date... name".
	ErrListingParse = errors.New("ftpsync: malformed listing line")

	// ErrNotConnected is returned when a remote operation is attempted
	// before Connect.
	ErrNotConnected = errors.New("ftpsync: not connected")
)

// OpError records the operation and path that failed, the error kind and
// the underlying cause.
type OpError struct {
	// Op is the operation that failed (e.g. "connect", "list", "retrieve").
	Op string

	// Path is the remote path or address involved, if any.
	Path string

	// Kind is one of the Err* sentinels of this package.
	Kind error

	// Err is the underlying error, typically from the transport.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

// Unwrap returns both the kind and the cause, so errors.Is matches the
// sentinel and errors.As reaches transport errors such as
// *ftpconn.ProtocolError.
func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// replyError is the method set of transport errors that carry a server
// reply code (ftpconn.ProtocolError implements it).
type replyError interface {
	error
	IsTemporary() bool
	IsPermanent() bool
}

// isServerReply reports whether err is a negative server reply as opposed
// to a local or network failure.
func isServerReply(err error) bool {
	var re replyError
	return errors.As(err, &re)
}

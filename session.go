package ftpsync

import "io"

// Session is the connection to the remote server. *ftpconn.Client
// implements it.
//
// A session carries one request at a time: the protocol is strictly
// request/response over a single control connection, so a Session must
// never be shared by concurrent callers. Timeouts and retries, if any,
// belong to the Session implementation.
type Session interface {
	// Login authenticates the session.
	Login(user, password string) error

	// List returns the raw listing lines for path ("" is the current
	// directory).
	List(path string) ([]string, error)

	// ChangeDir changes the remote working directory.
	ChangeDir(path string) error

	// Retrieve streams the content of a remote file into w.
	Retrieve(path string, w io.Writer) error

	// Size returns the size of a remote file. It fails with a server reply
	// for anything that is not a plain file.
	Size(path string) (int64, error)

	// Quit ends the session politely.
	Quit() error

	// Close tears the connection down without a goodbye.
	Close() error
}

// Dialer opens a Session to addr ("host:port").
type Dialer func(addr string) (Session, error)

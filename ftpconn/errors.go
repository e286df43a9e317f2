package ftpconn

import "fmt"

// ProtocolError is a reply the server sent instead of the one the command
// needed. It keeps the command and the reply text for diagnostics.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "SIZE")
	Command string

	// Response is the reply text without the code
	Response string

	// Code is the numeric reply code (e.g., 550)
	Code int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

func (e *ProtocolError) class() int {
	return e.Code / 100
}

// Is2xx reports a 2xx (success) code.
func (e *ProtocolError) Is2xx() bool { return e.class() == 2 }

// Is3xx reports a 3xx (intermediate) code.
func (e *ProtocolError) Is3xx() bool { return e.class() == 3 }

// Is4xx reports a 4xx (transient negative) code.
func (e *ProtocolError) Is4xx() bool { return e.class() == 4 }

// Is5xx reports a 5xx (permanent negative) code.
func (e *ProtocolError) Is5xx() bool { return e.class() == 5 }

// IsTemporary reports whether the command may succeed if retried later.
func (e *ProtocolError) IsTemporary() bool {
	return e.Is4xx()
}

// IsPermanent reports whether the server refused the command for good.
func (e *ProtocolError) IsPermanent() bool {
	return e.Is5xx()
}

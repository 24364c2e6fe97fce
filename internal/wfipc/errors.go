package wfipc

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectFailed reports a socket path that is unset, missing, or refusing connections.
	ErrConnectFailed = errors.New("wayfire ipc: connect failed")
	// ErrIO reports a read/write failure other than a clean peer close.
	ErrIO = errors.New("wayfire ipc: i/o error")
	// ErrConnectionClosed reports a stream that ended before a full frame arrived.
	ErrConnectionClosed = errors.New("wayfire ipc: connection closed")
	// ErrMalformed reports a payload that is not JSON or a length header that cannot be honoured.
	ErrMalformed = errors.New("wayfire ipc: malformed message")
)

// RemoteError is returned when the compositor answers with an object carrying an "error" key.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("wayfire ipc: remote error: %s", e.Message)
	}
	return fmt.Sprintf("wayfire ipc: %s: remote error: %s", e.Method, e.Message)
}

// IsRemote reports whether err carries a compositor-side error value.
func IsRemote(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote)
}

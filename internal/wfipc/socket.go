package wfipc

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// SocketEnv names the variable Wayfire exports with its IPC socket path.
const SocketEnv = "WAYFIRE_SOCKET"

// ErrSocketUnset reports that no socket path was configured or exported.
var ErrSocketUnset = errors.New(SocketEnv + " is not set")

// SocketPath picks the explicit path when given, otherwise $WAYFIRE_SOCKET.
func SocketPath(explicit string) (string, error) {
	if path := strings.TrimSpace(explicit); path != "" {
		return path, nil
	}
	if path := strings.TrimSpace(os.Getenv(SocketEnv)); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: %w", ErrConnectFailed, ErrSocketUnset)
}

// IsSocketFile reports whether path exists and is a unix socket.
func IsSocketFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode()&os.ModeSocket != 0, nil
}

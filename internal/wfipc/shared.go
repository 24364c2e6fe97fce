package wfipc

import (
	"context"
	"sync"
)

var shared struct {
	mu   sync.Mutex
	conn *Conn
}

// Shared returns the process-wide connection, dialing path on first use.
// Later calls return the same connection and ignore path and opts. A failed
// dial is returned to the caller and not cached, so a later call dials again.
func Shared(ctx context.Context, path string, opts Options) (*Conn, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.conn != nil {
		return shared.conn, nil
	}
	conn, err := Dial(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	shared.conn = conn
	return conn, nil
}

// ResetShared closes and forgets the process-wide connection so the next
// Shared call dials a fresh one.
func ResetShared() error {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.conn == nil {
		return nil
	}
	err := shared.conn.Close()
	shared.conn = nil
	return err
}

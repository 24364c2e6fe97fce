// Package wfipctest runs an in-process fake compositor speaking the framed
// Wayfire IPC protocol, for tests.
package wfipctest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/tau-OS/kumo/internal/wfipc"
)

// Request is one decoded request envelope.
type Request struct {
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data"`
}

// Handler answers one request. The returned value is encoded as the reply payload.
type Handler interface {
	Handle(context.Context, Request) any
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) any

func (f HandlerFunc) Handle(ctx context.Context, req Request) any {
	return f(ctx, req)
}

// Echo replies {"ok": true, "echo": <method>} to every request.
var Echo = HandlerFunc(func(_ context.Context, req Request) any {
	return map[string]any{"ok": true, "echo": req.Method}
})

// Fail replies {"error": message} to every request.
func Fail(message string) Handler {
	return HandlerFunc(func(context.Context, Request) any {
		return map[string]any{"error": message}
	})
}

// Serve accepts clients until ctx is cancelled or the listener closes. Each
// client connection is served sequentially: one frame in, one frame out.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()

			stop := context.AfterFunc(ctx, func() { _ = c.Close() })
			defer stop()

			for {
				payload, err := wfipc.ReadFrame(c)
				if err != nil {
					return
				}

				var req Request
				var reply any
				if err := json.Unmarshal(payload, &req); err != nil {
					reply = map[string]any{"error": fmt.Sprintf("decode request: %v", err)}
				} else {
					reply = handler.Handle(ctx, req)
				}

				body, err := json.Marshal(reply)
				if err != nil {
					body = []byte(`{"error":"encode reply"}`)
				}
				if err := wfipc.WriteFrame(c, body); err != nil {
					return
				}
			}
		}(conn)
	}
}

// Start listens on a fresh socket under t.TempDir, serves handler until the
// test ends, and returns the socket path.
func Start(t testing.TB, handler Handler) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wayfire.sock")
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen %s: %v", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, handler)
	}()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return path
}
